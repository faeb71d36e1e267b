package form

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
	"gopkg.in/yaml.v3"
)

// FileFormat is the encoding of a form values file.
type FileFormat string

const (
	FormatTOML FileFormat = "toml"
	FormatYAML FileFormat = "yaml"
)

// FormatFor picks the encoding from the file extension. Anything but .yaml or .yml is TOML.
func FormatFor(path string) FileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// FieldValue is a numeric input that may be written as a number or a string.
// It keeps the raw text so that [Assemble] decides how to treat it.
type FieldValue string

func (v *FieldValue) UnmarshalTOML(data any) error {
	switch x := data.(type) {
	case string:
		*v = FieldValue(x)
	case int64:
		*v = FieldValue(strconv.FormatInt(x, 10))
	case float64:
		*v = FieldValue(strconv.FormatFloat(x, 'f', -1, 64))
	default:
		return fmt.Errorf("expected a number or string, got %T", data)
	}
	return nil
}

func (v FieldValue) MarshalTOML() ([]byte, error) {
	s := strings.TrimSpace(string(v))
	if _, err := strconv.Atoi(s); err == nil {
		return []byte(s), nil
	}
	return []byte(strconv.Quote(string(v))), nil
}

func (v *FieldValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number or string", node.Line)
	}
	if node.Tag == "!!null" {
		*v = ""
		return nil
	}
	*v = FieldValue(node.Value)
	return nil
}

func (v FieldValue) MarshalYAML() (any, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(string(v))); err == nil {
		return n, nil
	}
	return string(v), nil
}

type scheduleSection struct {
	Enabled         bool       `toml:"enabled" yaml:"enabled"`
	IntervalMinutes FieldValue `toml:"interval_minutes" yaml:"interval_minutes"`
}

type limitsSection struct {
	MinFileSizeMB        FieldValue `toml:"min_file_size_mb" yaml:"min_file_size_mb"`
	MaxConcurrentWorkers FieldValue `toml:"max_concurrent_workers" yaml:"max_concurrent_workers"`
}

type notificationsSection struct {
	Enabled             bool   `toml:"enabled" yaml:"enabled"`
	WebhookURL          string `toml:"webhook_url" yaml:"webhook_url"`
	NotifyOnStart       bool   `toml:"notify_on_start" yaml:"notify_on_start"`
	NotifyOnCompletion  bool   `toml:"notify_on_completion" yaml:"notify_on_completion"`
	NotifyOnErrors      bool   `toml:"notify_on_errors" yaml:"notify_on_errors"`
	IncludeErrorDetails bool   `toml:"include_error_details" yaml:"include_error_details"`
}

// formFile is the on-disk layout of a form.
type formFile struct {
	SearchPaths    []string                     `toml:"search_paths" yaml:"search_paths"`
	Languages      []string                     `toml:"languages" yaml:"languages"`
	Schedule       scheduleSection              `toml:"schedule" yaml:"schedule"`
	ResourceLimits limitsSection                `toml:"resource_limits" yaml:"resource_limits"`
	Credentials    map[string]map[string]string `toml:"credentials" yaml:"credentials"`
	Notifications  notificationsSection         `toml:"notifications" yaml:"notifications"`
}

func toFile(f *Form) formFile {
	creds := make(map[string]map[string]string, len(f.Credentials))
	for provider, fields := range f.Credentials {
		creds[provider] = maps.Clone(fields)
	}

	return formFile{
		SearchPaths: f.Paths.Values(),
		Languages:   f.Languages.Values(),
		Schedule: scheduleSection{
			Enabled:         f.ScheduleEnabled,
			IntervalMinutes: FieldValue(f.IntervalMinutes),
		},
		ResourceLimits: limitsSection{
			MinFileSizeMB:        FieldValue(f.MinFileSizeMB),
			MaxConcurrentWorkers: FieldValue(f.MaxConcurrentWorkers),
		},
		Credentials: creds,
		Notifications: notificationsSection{
			Enabled:             f.Notifications.Enabled,
			WebhookURL:          f.Notifications.WebhookURL,
			NotifyOnStart:       f.Notifications.NotifyOnStart,
			NotifyOnCompletion:  f.Notifications.NotifyOnCompletion,
			NotifyOnErrors:      f.Notifications.NotifyOnErrors,
			IncludeErrorDetails: f.Notifications.IncludeErrorDetails,
		},
	}
}

func (ff formFile) form() *Form {
	return &Form{
		Paths:                NewEntryList(ff.SearchPaths...),
		Languages:            NewEntryList(ff.Languages...),
		ScheduleEnabled:      ff.Schedule.Enabled,
		IntervalMinutes:      string(ff.Schedule.IntervalMinutes),
		MinFileSizeMB:        string(ff.ResourceLimits.MinFileSizeMB),
		MaxConcurrentWorkers: string(ff.ResourceLimits.MaxConcurrentWorkers),
		Credentials:          ff.Credentials,
		Notifications: Notifications{
			Enabled:             ff.Notifications.Enabled,
			WebhookURL:          ff.Notifications.WebhookURL,
			NotifyOnStart:       ff.Notifications.NotifyOnStart,
			NotifyOnCompletion:  ff.Notifications.NotifyOnCompletion,
			NotifyOnErrors:      ff.Notifications.NotifyOnErrors,
			IncludeErrorDetails: ff.Notifications.IncludeErrorDetails,
		},
	}
}

// LoadForm reads form values from a TOML or YAML file. Keys the file leaves out take the
// server's defaults; unknown keys are an error.
func LoadForm(path string) (*Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: form file %s (run 'subctl config init')", shared.ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read form file: %w", err)
	}

	return DecodeForm(FormatFor(path), data)
}

// DecodeForm parses form values encoded as format.
func DecodeForm(format FileFormat, data []byte) (*Form, error) {
	ff := toFile(NewForm(models.DefaultConfigDocument()))

	switch format {
	case FormatYAML:
		if len(bytes.TrimSpace(data)) == 0 {
			break
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&ff); err != nil {
			return nil, fmt.Errorf("%w: form: %v", shared.ErrInvalidConfig, err)
		}
	case FormatTOML:
		meta, err := toml.Decode(string(data), &ff)
		if err != nil {
			return nil, fmt.Errorf("%w: form: %v", shared.ErrInvalidConfig, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: form: unknown key %q", shared.ErrInvalidConfig, undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("%w: unknown form format %q", shared.ErrInvalidConfig, format)
	}

	return ff.form(), nil
}

// EncodeForm renders the form in format.
func EncodeForm(format FileFormat, f *Form) ([]byte, error) {
	ff := toFile(f)

	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(ff)
		if err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
		return data, nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(ff); err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown form format %q", shared.ErrInvalidConfig, format)
	}
}

// WriteForm saves the form to path, choosing the encoding from the extension.
// The file can hold provider passwords, so it is written owner-only.
func WriteForm(path string, f *Form) error {
	data, err := EncodeForm(FormatFor(path), f)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create form directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	return nil
}
