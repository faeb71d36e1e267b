// package form turns configuration form values into a validated [models.ConfigDocument]
package form

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
)

// Field names used in validation errors match the wire keys.
const (
	FieldIntervalMinutes = "schedule_interval_minutes"
	FieldMinFileSizeMB   = "min_file_size_mb"
	FieldMaxWorkers      = "max_concurrent_workers"
)

// Fallbacks applied when a numeric field does not parse.
const (
	FallbackIntervalMinutes = 1
	FallbackMinFileSizeMB   = 0
	FallbackMaxWorkers      = 1
)

// Form holds configuration inputs as the user typed them. Numeric fields stay raw text until [Assemble].
type Form struct {
	Paths     EntryList
	Languages EntryList

	ScheduleEnabled bool
	IntervalMinutes string

	MinFileSizeMB        string
	MaxConcurrentWorkers string

	// Credentials maps provider name to field name to value.
	Credentials map[string]map[string]string

	Notifications Notifications
}

// Notifications mirrors the webhook section of the form.
type Notifications struct {
	Enabled             bool
	WebhookURL          string
	NotifyOnStart       bool
	NotifyOnCompletion  bool
	NotifyOnErrors      bool
	IncludeErrorDetails bool
}

// NewForm seeds a form from a document.
func NewForm(doc models.ConfigDocument) *Form {
	creds := make(map[string]map[string]string, len(doc.Credentials))
	for provider, fields := range doc.Credentials {
		creds[provider] = maps.Clone(map[string]string(fields))
	}

	return &Form{
		Paths:                NewEntryList(doc.SearchPaths...),
		Languages:            NewEntryList(doc.Languages...),
		ScheduleEnabled:      doc.Schedule.Enabled,
		IntervalMinutes:      strconv.Itoa(doc.Schedule.IntervalMinutes),
		MinFileSizeMB:        strconv.Itoa(doc.ResourceLimits.MinFileSizeMB),
		MaxConcurrentWorkers: strconv.Itoa(doc.ResourceLimits.MaxConcurrentWorkers),
		Credentials:          creds,
		Notifications: Notifications{
			Enabled:             doc.Notifications.Enabled,
			WebhookURL:          doc.Notifications.WebhookURL,
			NotifyOnStart:       doc.Notifications.NotifyOnStart,
			NotifyOnCompletion:  doc.Notifications.NotifyOnCompletion,
			NotifyOnErrors:      doc.Notifications.NotifyOnErrors,
			IncludeErrorDetails: doc.Notifications.IncludeErrorDetails,
		},
	}
}

// Assemble builds a document from the form without modifying it.
//
// List entries are trimmed and empty ones dropped. A numeric field that does not parse falls
// back to its minimum valid value. When the schedule is enabled the interval must be a
// positive integer; otherwise a [*shared.ValidationError] is returned and no document.
func Assemble(f *Form) (models.ConfigDocument, error) {
	if f == nil {
		return models.ConfigDocument{}, fmt.Errorf("%w: form is nil", shared.ErrInvalidInput)
	}

	interval, err := parseInt(f.IntervalMinutes)
	switch {
	case f.ScheduleEnabled && (err != nil || interval < 1):
		return models.ConfigDocument{}, &shared.ValidationError{
			Field:  FieldIntervalMinutes,
			Reason: fmt.Sprintf("must be a positive integer when the schedule is enabled, got %q", strings.TrimSpace(f.IntervalMinutes)),
		}
	case err != nil:
		interval = FallbackIntervalMinutes
	}

	minSize, err := parseInt(f.MinFileSizeMB)
	if err != nil || minSize < 0 {
		minSize = FallbackMinFileSizeMB
	}

	workers, err := parseInt(f.MaxConcurrentWorkers)
	if err != nil || workers < 1 {
		workers = FallbackMaxWorkers
	}

	return models.ConfigDocument{
		SearchPaths: f.Paths.Clean(),
		Languages:   f.Languages.Clean(),
		Schedule: models.ScheduleConfig{
			Enabled:         f.ScheduleEnabled,
			IntervalMinutes: interval,
		},
		ResourceLimits: models.ResourceLimits{
			MinFileSizeMB:        minSize,
			MaxConcurrentWorkers: workers,
		},
		Credentials: assembleCredentials(f.Credentials),
		Notifications: models.NotificationConfig{
			Enabled:             f.Notifications.Enabled,
			WebhookURL:          strings.TrimSpace(f.Notifications.WebhookURL),
			NotifyOnStart:       f.Notifications.NotifyOnStart,
			NotifyOnCompletion:  f.Notifications.NotifyOnCompletion,
			NotifyOnErrors:      f.Notifications.NotifyOnErrors,
			IncludeErrorDetails: f.Notifications.IncludeErrorDetails,
			WebhookType:         models.WebhookTypeAuto,
		},
	}, nil
}

func parseInt(raw string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(raw))
}

// assembleCredentials emits every known provider with all of its fields, empty when absent.
// Providers the client does not know are passed through unchanged.
func assembleCredentials(in map[string]map[string]string) models.Credentials {
	out := make(models.Credentials, len(models.Providers))
	for _, p := range models.Providers {
		fields := make(models.ProviderCredentials, len(p.Fields))
		for _, name := range p.Fields {
			fields[name] = in[p.Name][name]
		}
		out[p.Name] = fields
	}

	for provider, fields := range in {
		if _, known := models.LookupProvider(provider); known {
			continue
		}
		cloned := make(models.ProviderCredentials, len(fields))
		maps.Copy(cloned, fields)
		out[provider] = cloned
	}
	return out
}
