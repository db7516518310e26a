package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spigell/ai-interviewer/internal/ai"
	"github.com/spigell/ai-interviewer/internal/ai/gemini"
	"github.com/spigell/ai-interviewer/internal/ai/openrouter"
	"github.com/spigell/ai-interviewer/internal/interview"
	"github.com/spigell/ai-interviewer/internal/logger"
	"github.com/spigell/ai-interviewer/internal/report"
	"github.com/spigell/ai-interviewer/internal/retrieval"
	"github.com/spigell/ai-interviewer/internal/secrets"
	"github.com/spigell/ai-interviewer/internal/session"
	"github.com/spigell/ai-interviewer/internal/storage/memory"
	"github.com/spigell/ai-interviewer/internal/tools"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes            = "Yes"
	PromptNo             = "No"
	PromptShowTranscript = "Show the interview transcript"
	PromptShowEvaluation = "Show the evaluation"
	PromptShowReport     = "Show the HR report"
	PromptExit           = "Exit"

	greeting = "Hi"

	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "openai/gpt-4o-mini"
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
	defaultGroqModel         = "llama-3.3-70b-versatile"
	defaultTemperature       = 0.7
	defaultEvalTemperature   = 0.1
	defaultReportsDir        = "reports"

	sessionIDField = logger.FieldSession
)

var errExit = errors.New("exit requested")

var resultsPrompt = promptui.Select{
	Label: "Interview finished. What next?",
	Items: []string{PromptShowTranscript, PromptShowEvaluation, PromptShowReport, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive interview session",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("reports-dir", "r", "", "directory for saved HR reports. Default is ./reports.")
	runCmd.Flags().StringP("position", "p", "", "position the candidate is interviewed for")

	viper.BindPFlag("reports.dir", runCmd.Flags().Lookup("reports-dir"))
	viper.BindPFlag("interview.position", runCmd.Flags().Lookup("position"))
}

// run is the main command for the cli.
func run(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the ai-interviewer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Documents == nil || config.Documents.InterviewFile == "" || config.Documents.ResumeFile == "" {
		logger.Fatal("interview document and resume files are required under the documents section")
	}

	interviewCfg := interview.Config{}
	if config.Interview != nil {
		interviewCfg = *config.Interview
	}
	if position := viper.GetString("interview.position"); position != "" {
		interviewCfg.Position = position
	}
	interviewCfg = interviewCfg.WithDefaults()

	registry, err := buildRegistry(config, logger)
	if err != nil {
		logger.Fatal("building the tool registry", zap.Error(err))
	}

	generator, evaluator, err := buildGenerators(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building ai generators", zap.Error(err))
	}

	factory := func(cfg interview.Config) (*interview.Workflow, error) {
		return interview.NewWorkflow(cfg, generator, evaluator, registry, logger)
	}

	manager, err := session.NewManager(memory.NewStore(), factory, logger)
	if err != nil {
		logger.Fatal("building the session manager", zap.Error(err))
	}

	sessionID, err := manager.Create(ctx, interviewCfg)
	if err != nil {
		logger.Fatal("creating the interview session", zap.Error(err))
	}

	logger.Info("interview session started",
		zap.String(sessionIDField, sessionID),
		zap.String("position", interviewCfg.Position),
		zap.String("company", interviewCfg.CompanyName),
	)

	result, err := manager.RunTurn(ctx, sessionID, greeting)
	if err != nil {
		logger.Fatal("opening the interview", zap.Error(err))
	}
	fmt.Printf("\nRecruiter: %s\n", result.Reply)

	for !result.Complete {
		answer, err := readAnswer()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if answer == "" {
			continue
		}

		if isExitWord(answer) && confirmExit(logger) {
			logger.Info("exiting", zap.String("reason", "interview aborted by the candidate"))
			return
		}

		result, err = manager.RunTurn(ctx, sessionID, answer)
		if err != nil {
			// The failed turn is not persisted, so the same answer can be resent.
			logger.Error("turn failed, please resend the answer", zap.Error(err))
			continue
		}

		fmt.Printf("\nRecruiter: %s\n", result.Reply)
	}

	results, err := manager.Results(ctx, sessionID)
	if err != nil {
		logger.Fatal("getting interview results", zap.Error(err))
	}

	for {
		_, action, err := resultsPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, results, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, results *session.Results, logger *zap.Logger) error {
	switch action {
	case PromptShowTranscript:
		fmt.Printf("\n%s\n\n", results.Transcript)
		return nil
	case PromptShowEvaluation:
		fmt.Printf("\n%s\n\n", results.Evaluation)
		return nil
	case PromptShowReport:
		fmt.Printf("\n%s\n\n", results.Report)
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func readAnswer() (string, error) {
	answerPrompt := promptui.Prompt{
		Label: "You",
	}

	answer, err := answerPrompt.Run()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(answer), nil
}

func isExitWord(answer string) bool {
	switch strings.ToLower(answer) {
	case "exit", "quit":
		return true
	default:
		return false
	}
}

func confirmExit(logger *zap.Logger) bool {
	confirm := promptui.Select{
		Label: "Abort the interview?",
		Items: []string{PromptYes, PromptNo},
	}

	_, choice, err := confirm.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	return choice == PromptYes
}

func buildRegistry(config *Config, logger *zap.Logger) (*tools.Registry, error) {
	topK := config.Documents.TopPassages

	interviewDoc, err := retrieval.LoadDocument("interview document", config.Documents.InterviewFile, topK)
	if err != nil {
		return nil, fmt.Errorf("loading the interview document: %w", err)
	}

	resume, err := retrieval.LoadDocument("candidate resume", config.Documents.ResumeFile, topK)
	if err != nil {
		return nil, fmt.Errorf("loading the resume: %w", err)
	}

	reportsDir := defaultReportsDir
	if config.Reports != nil && config.Reports.Dir != "" {
		reportsDir = config.Reports.Dir
	}
	sink := report.NewFileSink(reportsDir)

	logger.Info("tool collaborators prepared",
		zap.String("interview_document", config.Documents.InterviewFile),
		zap.String("resume", config.Documents.ResumeFile),
		zap.String("reports_dir", reportsDir),
	)

	registry := tools.NewRegistry()

	spec, handler := tools.NewInterviewDocumentTool(interviewDoc)
	if err := registry.Register(spec, handler); err != nil {
		return nil, err
	}

	spec, handler = tools.NewResumeTool(resume)
	if err := registry.Register(spec, handler); err != nil {
		return nil, err
	}

	spec, handler = tools.NewSaveReportTool(sink)
	if err := registry.Register(spec, handler); err != nil {
		return nil, err
	}

	return registry, nil
}

// buildGenerators assembles the fallback chains for the conversational and
// the evaluator roles. The evaluator chain runs the same providers with a
// lower temperature.
func buildGenerators(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, ai.Generator, error) {
	if cfg == nil {
		return nil, nil, errors.New("ai configuration is required")
	}

	evalTemperature := cfg.EvaluatorTemperature
	if evalTemperature == 0 {
		evalTemperature = defaultEvalTemperature
	}

	var primary, evaluating []ai.Generator

	if cfg.OpenRouter != nil {
		main, eval, err := buildOpenAIStylePair("openrouter", cfg.OpenRouter, defaultOpenRouterBaseURL, defaultOpenRouterModel, evalTemperature, cfg.MaxLogLength, logger)
		if err != nil {
			return nil, nil, err
		}
		primary = append(primary, main)
		evaluating = append(evaluating, eval)
	}

	if cfg.Groq != nil {
		main, eval, err := buildOpenAIStylePair("groq", cfg.Groq, defaultGroqBaseURL, defaultGroqModel, evalTemperature, cfg.MaxLogLength, logger)
		if err != nil {
			return nil, nil, err
		}
		primary = append(primary, main)
		evaluating = append(evaluating, eval)
	}

	if cfg.Gemini != nil {
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		client, err := gemini.New(ctx, apiKey, cfg.Gemini.Model, cfg.MaxLogLength, logger)
		if err != nil {
			return nil, nil, err
		}
		primary = append(primary, client)
		evaluating = append(evaluating, client)
	}

	if len(primary) == 0 {
		return nil, nil, errors.New("at least one ai provider must be configured under the ai section")
	}

	generator, err := ai.NewFallback(logger, primary...)
	if err != nil {
		return nil, nil, err
	}

	evaluator, err := ai.NewFallback(logger, evaluating...)
	if err != nil {
		return nil, nil, err
	}

	return generator, evaluator, nil
}

func buildOpenAIStylePair(provider string, cfg *OpenAIStyleConfig, defaultBaseURL, defaultModel string, evalTemperature float64, maxLogLength int, logger *zap.Logger) (ai.Generator, ai.Generator, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name: provider + " api key",
		File: cfg.APIKeyFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set ai.%s.api-key-file or %s_API_KEY_FILE)", err, provider, strings.ToUpper(provider))
	}

	base := openrouter.Config{
		Provider:     provider,
		BaseURL:      cfg.BaseURL,
		APIKey:       apiKey,
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		MaxLogLength: maxLogLength,
	}
	if base.BaseURL == "" {
		base.BaseURL = defaultBaseURL
	}
	if base.Model == "" {
		base.Model = defaultModel
	}
	if base.Temperature == 0 {
		base.Temperature = defaultTemperature
	}

	main, err := openrouter.New(base, logger)
	if err != nil {
		return nil, nil, err
	}

	evalCfg := base
	evalCfg.Temperature = evalTemperature

	eval, err := openrouter.New(evalCfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return main, eval, nil
}
