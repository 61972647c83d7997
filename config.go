package prismatenant

import (
	"fmt"
	"io/ioutil"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults used by Config.Validate for fields left empty.
const (
	DefaultSchemaPath = "prisma/schema.prisma"
	DefaultField      = "tenantId"
	DefaultFieldType  = "String"
	DefaultMarker     = "// User relation"
	DefaultComment    = "// Multi-tenant relationship"
)

// DefaultModels is the list of models that get a tenant column
// when no other list is configured.
var DefaultModels = []string{
	"Invoice", "Deal", "Task", "PipelineStage",
	"WhatsAppConversation", "WhatsAppMessage", "CalendarEvent", "EmailLog",
	"AutomationRule", "Document", "SalesForecast", "VectorDataUpload",
	"RevenueGoal", "AIConversation", "AIMessage", "Campaign",
	"CampaignRecipient", "CampaignLog", "Form", "FormSubmission", "LandingPage",
}

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrNoModels is the error produced when a Config names no target models.
var ErrNoModels = errors.New("no target models")

// Config says which models to patch, where, and with what.
type Config struct {
	// SchemaPath is the schema file read and rewritten by ApplyFile.
	SchemaPath string `yaml:"schema_path"`

	// Models are the names of the model blocks to patch, in order.
	Models []string `yaml:"models"`

	// Field is the name of the tenant field, e.g. "tenantId".
	Field string `yaml:"field"`

	// FieldType is the Prisma scalar type of the tenant field.
	FieldType string `yaml:"field_type"`

	// Marker is the comment line in each model block
	// before which the tenant field is inserted.
	Marker string `yaml:"marker"`

	// Comment is written on the line above the inserted field.
	Comment string `yaml:"comment"`

	// MigrationPath, if set, is where the CLI writes the SQL migration.
	MigrationPath string `yaml:"migration_path"`
}

// LoadConfig reads a YAML config file.
// The result has not been validated.
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	cfg := new(Config)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %s", path)
	}
	return cfg, nil
}

// Validate fills in defaults for empty fields
// and reports an error for settings that cannot work.
// An empty Models list is replaced with DefaultModels;
// ErrNoModels is reported only when every listed name is blank.
func (c *Config) Validate() error {
	if c.SchemaPath == "" {
		c.SchemaPath = DefaultSchemaPath
	}
	if c.Field == "" {
		c.Field = DefaultField
	}
	if c.FieldType == "" {
		c.FieldType = DefaultFieldType
	}
	c.Marker = strings.TrimSpace(c.Marker)
	if c.Marker == "" {
		c.Marker = DefaultMarker
	}
	if c.Comment == "" {
		c.Comment = DefaultComment
	}
	if len(c.Models) == 0 {
		c.Models = append([]string(nil), DefaultModels...)
	}

	var models []string
	seen := make(map[string]bool)
	for _, m := range c.Models {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		if !identRE.MatchString(m) {
			return fmt.Errorf("invalid model name %q", m)
		}
		seen[m] = true
		models = append(models, m)
	}
	if len(models) == 0 {
		return ErrNoModels
	}
	c.Models = models

	if !identRE.MatchString(c.Field) {
		return fmt.Errorf("invalid field name %q", c.Field)
	}
	if !identRE.MatchString(c.FieldType) {
		return fmt.Errorf("invalid field type %q", c.FieldType)
	}
	return nil
}

func (c *Config) indexDecl() string {
	return "@@index([" + c.Field + "])"
}
