package models

import (
	"encoding/json"
	"fmt"
)

const (
	FieldUsername = "username"
	FieldPassword = "password"
	FieldAPIKey   = "api_key"

	// WebhookTypeAuto lets the server pick the payload shape from the webhook URL.
	WebhookTypeAuto = "auto"
)

// Provider names a subtitle provider and the credential fields it accepts.
type Provider struct {
	Name   string
	Fields []string
}

// Providers is the set of providers the server knows how to authenticate against.
var Providers = []Provider{
	{Name: "opensubtitles", Fields: []string{FieldUsername, FieldPassword}},
	{Name: "opensubtitlescom", Fields: []string{FieldUsername, FieldPassword, FieldAPIKey}},
	{Name: "addic7ed", Fields: []string{FieldUsername, FieldPassword}},
}

// LookupProvider finds a provider by name.
func LookupProvider(name string) (Provider, bool) {
	for _, p := range Providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// ProviderCredentials maps a credential field name to its value.
type ProviderCredentials map[string]string

// Credentials maps provider name to its credential fields.
type Credentials map[string]ProviderCredentials

// ScheduleConfig controls the server's periodic download run.
//
// IntervalMinutes is only enforced positive when Enabled is true.
type ScheduleConfig struct {
	Enabled         bool
	IntervalMinutes int
}

// ResourceLimits bounds the server's scanning work.
type ResourceLimits struct {
	MinFileSizeMB        int
	MaxConcurrentWorkers int
}

// NotificationConfig holds webhook notification settings.
type NotificationConfig struct {
	Enabled             bool
	WebhookURL          string
	NotifyOnStart       bool
	NotifyOnCompletion  bool
	NotifyOnErrors      bool
	IncludeErrorDetails bool
	WebhookType         string
}

// ConfigDocument is the configuration payload submitted to the server.
type ConfigDocument struct {
	SearchPaths    []string
	Languages      []string
	Schedule       ScheduleConfig
	ResourceLimits ResourceLimits
	Credentials    Credentials
	Notifications  NotificationConfig
}

// DefaultConfigDocument mirrors the server's built-in defaults.
func DefaultConfigDocument() ConfigDocument {
	creds := make(Credentials, len(Providers))
	for _, p := range Providers {
		fields := make(ProviderCredentials, len(p.Fields))
		for _, f := range p.Fields {
			fields[f] = ""
		}
		creds[p.Name] = fields
	}

	return ConfigDocument{
		SearchPaths: []string{},
		Languages:   []string{},
		Schedule:    ScheduleConfig{Enabled: false, IntervalMinutes: 60},
		ResourceLimits: ResourceLimits{
			MinFileSizeMB:        50,
			MaxConcurrentWorkers: 3,
		},
		Credentials: creds,
		Notifications: NotificationConfig{
			NotifyOnStart:       true,
			NotifyOnCompletion:  true,
			NotifyOnErrors:      true,
			IncludeErrorDetails: true,
			WebhookType:         WebhookTypeAuto,
		},
	}
}

type wireNotifications struct {
	Enabled            bool   `json:"enabled"`
	WebhookURL         string `json:"webhook_url"`
	NotifyOnStart      bool   `json:"notify_on_start"`
	NotifyOnCompletion bool   `json:"notify_on_completion"`
	NotifyOnErrors     bool   `json:"notify_on_errors"`
	IncludeErrors      bool   `json:"include_errors"`
	WebhookType        string `json:"webhook_type"`
}

type wireConfig struct {
	SearchPaths             []string          `json:"search_paths"`
	Languages               []string          `json:"languages"`
	ScheduleEnabled         bool              `json:"schedule_enabled"`
	ScheduleIntervalMinutes int               `json:"schedule_interval_minutes"`
	MinFileSizeMB           int               `json:"min_file_size_mb"`
	MaxConcurrentWorkers    int               `json:"max_concurrent_workers"`
	Credentials             Credentials       `json:"credentials"`
	Notifications           wireNotifications `json:"notifications"`
}

// MarshalJSON encodes the document with the server's flat key layout.
//
// Nil lists and maps are written as empty values so the server never sees null.
func (d ConfigDocument) MarshalJSON() ([]byte, error) {
	w := wireConfig{
		SearchPaths:             nonNil(d.SearchPaths),
		Languages:               nonNil(d.Languages),
		ScheduleEnabled:         d.Schedule.Enabled,
		ScheduleIntervalMinutes: d.Schedule.IntervalMinutes,
		MinFileSizeMB:           d.ResourceLimits.MinFileSizeMB,
		MaxConcurrentWorkers:    d.ResourceLimits.MaxConcurrentWorkers,
		Credentials:             d.Credentials,
		Notifications: wireNotifications{
			Enabled:            d.Notifications.Enabled,
			WebhookURL:         d.Notifications.WebhookURL,
			NotifyOnStart:      d.Notifications.NotifyOnStart,
			NotifyOnCompletion: d.Notifications.NotifyOnCompletion,
			NotifyOnErrors:     d.Notifications.NotifyOnErrors,
			IncludeErrors:      d.Notifications.IncludeErrorDetails,
			WebhookType:        d.Notifications.WebhookType,
		},
	}
	if w.Credentials == nil {
		w.Credentials = Credentials{}
	}
	if w.Notifications.WebhookType == "" {
		w.Notifications.WebhookType = WebhookTypeAuto
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the server's flat key layout.
func (d *ConfigDocument) UnmarshalJSON(data []byte) error {
	var w wireConfig
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode config document: %w", err)
	}

	*d = ConfigDocument{
		SearchPaths: nonNil(w.SearchPaths),
		Languages:   nonNil(w.Languages),
		Schedule: ScheduleConfig{
			Enabled:         w.ScheduleEnabled,
			IntervalMinutes: w.ScheduleIntervalMinutes,
		},
		ResourceLimits: ResourceLimits{
			MinFileSizeMB:        w.MinFileSizeMB,
			MaxConcurrentWorkers: w.MaxConcurrentWorkers,
		},
		Credentials: w.Credentials,
		Notifications: NotificationConfig{
			Enabled:             w.Notifications.Enabled,
			WebhookURL:          w.Notifications.WebhookURL,
			NotifyOnStart:       w.Notifications.NotifyOnStart,
			NotifyOnCompletion:  w.Notifications.NotifyOnCompletion,
			NotifyOnErrors:      w.Notifications.NotifyOnErrors,
			IncludeErrorDetails: w.Notifications.IncludeErrors,
			WebhookType:         w.Notifications.WebhookType,
		},
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
