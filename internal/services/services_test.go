package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/subctl/internal/form"
	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
)

var _ Actions = (*ActionClient)(nil)
var _ ConfigSaver = (*ConfigSyncClient)(nil)

func newServer(t *testing.T, handler http.HandlerFunc) *APIService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAPIService(server.URL, server.Client())
}

func TestActionClient(t *testing.T) {
	t.Run("Scan", func(t *testing.T) {
		t.Run("Returns Every Result", func(t *testing.T) {
			api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != PathScan {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"results":[{"path":"/media","videos":12,"missing":2},{"path":"/gone","error":"no such directory"}]}`)
			})

			results, err := NewActionClient(api).Scan(context.Background())
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if len(results) != 2 {
				t.Fatalf("expected 2 results, got %d", len(results))
			}
			if results[0] != (models.ScanResult{Path: "/media", Videos: 12, Missing: 2}) {
				t.Errorf("unexpected first result %+v", results[0])
			}
			if !results[1].Failed() || results[1].Error != "no such directory" {
				t.Errorf("unexpected second result %+v", results[1])
			}
		})

		t.Run("Null Results", func(t *testing.T) {
			api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"results":null}`)
			})

			results, err := NewActionClient(api).Scan(context.Background())
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if results == nil || len(results) != 0 {
				t.Errorf("expected empty results, got %#v", results)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "Scan failed: permission denied", http.StatusInternalServerError)
			})

			_, err := NewActionClient(api).Scan(context.Background())
			var rej *shared.ServerRejection
			if !errors.As(err, &rej) {
				t.Fatalf("expected ServerRejection, got %v", err)
			}
			if rej.Message != "Scan failed: permission denied" {
				t.Errorf("Message = %q", rej.Message)
			}
		})

		t.Run("Invalid Body", func(t *testing.T) {
			api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>`)
			})

			_, err := NewActionClient(api).Scan(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("Download", func(t *testing.T) {
		t.Run("Accepted", func(t *testing.T) {
			api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != PathDownload {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				fmt.Fprint(w, `{"message":"Download process started."}`)
			})

			msg, err := NewActionClient(api).Download(context.Background())
			if err != nil {
				t.Fatalf("Download() error = %v", err)
			}
			if msg != "Download process started." {
				t.Errorf("message = %q", msg)
			}
		})

		t.Run("Busy", func(t *testing.T) {
			var busy atomic.Bool
			api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				if busy.Swap(true) {
					http.Error(w, "A download task is already in progress.", http.StatusConflict)
					return
				}
				fmt.Fprint(w, `{"message":"Download process started."}`)
			})

			client := NewActionClient(api)
			if _, err := client.Download(context.Background()); err != nil {
				t.Fatalf("first Download() error = %v", err)
			}

			_, err := client.Download(context.Background())
			var rej *shared.ServerRejection
			if !errors.As(err, &rej) {
				t.Fatalf("expected ServerRejection, got %v", err)
			}
			if rej.StatusCode != http.StatusConflict || rej.Message != "A download task is already in progress." {
				t.Errorf("unexpected rejection %+v", rej)
			}
		})

		t.Run("Rejected With JSON Message", func(t *testing.T) {
			api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprint(w, `{"message":"Failed to start task."}`)
			})

			_, err := NewActionClient(api).Download(context.Background())
			if got := shared.UserMessage(err); got != "Failed to start task." {
				t.Errorf("UserMessage() = %q", got)
			}
		})
	})

	t.Run("TestWebhook", func(t *testing.T) {
		t.Run("Sent", func(t *testing.T) {
			api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"success":true,"message":"Test notification sent! Please check your webhook service."}`)
			})

			msg, err := NewActionClient(api).TestWebhook(context.Background())
			if err != nil {
				t.Fatalf("TestWebhook() error = %v", err)
			}
			if msg != "Test notification sent! Please check your webhook service." {
				t.Errorf("message = %q", msg)
			}
		})

		t.Run("Disabled", func(t *testing.T) {
			api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "Webhooks are not enabled or no URL is configured.", http.StatusBadRequest)
			})

			_, err := NewActionClient(api).TestWebhook(context.Background())
			if !errors.Is(err, shared.ErrServerRejected) {
				t.Errorf("expected ErrServerRejected, got %v", err)
			}
		})

		t.Run("Unsuccessful Body", func(t *testing.T) {
			api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"success":false,"error":"webhook returned 404"}`)
			})

			_, err := NewActionClient(api).TestWebhook(context.Background())
			if got := shared.UserMessage(err); got != "webhook returned 404" {
				t.Errorf("UserMessage() = %q", got)
			}
		})
	})
}

func TestConfigSyncClient(t *testing.T) {
	t.Run("Posts The Wire Document", func(t *testing.T) {
		var received map[string]any
		api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != PathConfig {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &received); err != nil {
				t.Errorf("invalid body: %v", err)
			}
			fmt.Fprint(w, `{"message":"Configuration saved successfully."}`)
		})

		doc := models.DefaultConfigDocument()
		doc.SearchPaths = []string{"/media"}
		doc.Schedule.Enabled = true

		msg, err := NewConfigSyncClient(api).Save(context.Background(), doc)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if msg != "Configuration saved successfully." {
			t.Errorf("message = %q", msg)
		}

		for _, key := range []string{"search_paths", "languages", "schedule_enabled", "schedule_interval_minutes", "min_file_size_mb", "max_concurrent_workers", "credentials", "notifications"} {
			if _, ok := received[key]; !ok {
				t.Errorf("missing key %q", key)
			}
		}
		if received["schedule_enabled"] != true {
			t.Errorf("schedule_enabled = %v", received["schedule_enabled"])
		}
		notifications, _ := received["notifications"].(map[string]any)
		if notifications["webhook_type"] != "auto" {
			t.Errorf("webhook_type = %v", notifications["webhook_type"])
		}
	})

	t.Run("Rejection Leaves The Form Untouched", func(t *testing.T) {
		api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"Failed to save config: disk full"}`)
		})

		f := form.NewForm(models.DefaultConfigDocument())
		f.Paths.Add(" /media ")
		before := f.Paths.Values()

		doc, err := form.Assemble(f)
		if err != nil {
			t.Fatal(err)
		}
		_, err = NewConfigSyncClient(api).Save(context.Background(), doc)
		if got := shared.UserMessage(err); got != "Failed to save config: disk full" {
			t.Errorf("UserMessage() = %q", got)
		}
		if fmt.Sprint(f.Paths.Values()) != fmt.Sprint(before) {
			t.Errorf("form changed: %v", f.Paths.Values())
		}
	})

	t.Run("Validation Failure Sends Nothing", func(t *testing.T) {
		var hits atomic.Int32
		api := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		})

		f := form.NewForm(models.DefaultConfigDocument())
		f.ScheduleEnabled = true
		f.IntervalMinutes = "every hour"

		if doc, err := form.Assemble(f); err == nil {
			_, _ = NewConfigSyncClient(api).Save(context.Background(), doc)
		} else if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}

		if hits.Load() != 0 {
			t.Errorf("expected no request, got %d", hits.Load())
		}
		if f.IntervalMinutes != "every hour" {
			t.Errorf("form changed: %q", f.IntervalMinutes)
		}
	})
}
