package cmd

import (
	"log"

	"github.com/spigell/ai-interviewer/internal/interview"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "ai-interviewer"
)

type Config struct {
	Interview *interview.Config `mapstructure:"interview"`
	Documents *DocumentsConfig  `mapstructure:"documents"`
	Reports   *ReportsConfig    `mapstructure:"reports"`
	AI        *AIConfig         `mapstructure:"ai"`
}

type DocumentsConfig struct {
	InterviewFile string `mapstructure:"interview-file"`
	ResumeFile    string `mapstructure:"resume-file"`
	TopPassages   int    `mapstructure:"top-passages"`
}

type ReportsConfig struct {
	Dir string `mapstructure:"dir"`
}

type AIConfig struct {
	MaxLogLength         int                `mapstructure:"max-log-length"`
	EvaluatorTemperature float64            `mapstructure:"evaluator-temperature"`
	OpenRouter           *OpenAIStyleConfig `mapstructure:"openrouter"`
	Groq                 *OpenAIStyleConfig `mapstructure:"groq"`
	Gemini               *GeminiConfig      `mapstructure:"gemini"`
}

// OpenAIStyleConfig configures a provider speaking the OpenAI chat
// completions protocol.
type OpenAIStyleConfig struct {
	APIKeyFile  string  `mapstructure:"api-key-file"`
	BaseURL     string  `mapstructure:"base-url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ai-interviewer is a cli for running simulated job interviews with an AI recruiter",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"ai.openrouter.api-key-file": "OPENROUTER_API_KEY_FILE",
		"ai.groq.api-key-file":       "GROQ_API_KEY_FILE",
		"ai.gemini.api-key-file":     "GEMINI_API_KEY_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ai-interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
