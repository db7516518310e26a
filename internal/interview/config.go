package interview

import "strings"

// Interview defaults applied when the corresponding Config field is unset.
const (
	DefaultMode         = "friendly"
	DefaultNumQuestions = 3
	DefaultNumFollowups = 2
	DefaultCompanyName  = "Tech Innovators Inc."
	DefaultPosition     = "AI Engineer"
)

// Config carries the session attributes that parameterize the stage
// instructions. It is configuration data, not control flow.
type Config struct {
	Mode         string `mapstructure:"mode" json:"mode"`
	NumQuestions int    `mapstructure:"num-questions" json:"num_questions"`
	NumFollowups int    `mapstructure:"num-followups" json:"num_followups"`
	CompanyName  string `mapstructure:"company-name" json:"company_name"`
	Position     string `mapstructure:"position" json:"position"`
}

// WithDefaults returns a copy of the config with unset fields replaced by
// the interview defaults.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.Mode) == "" {
		c.Mode = DefaultMode
	}
	if c.NumQuestions <= 0 {
		c.NumQuestions = DefaultNumQuestions
	}
	if c.NumFollowups <= 0 {
		c.NumFollowups = DefaultNumFollowups
	}
	if strings.TrimSpace(c.CompanyName) == "" {
		c.CompanyName = DefaultCompanyName
	}
	if strings.TrimSpace(c.Position) == "" {
		c.Position = DefaultPosition
	}
	return c
}
