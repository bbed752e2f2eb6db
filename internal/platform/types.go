// Package platform defines the Baikal backend's data model and typed
// client-side views over its collections: documents, automations, runs,
// auth, and the assistant endpoint.
package platform

import (
	"encoding/json"
	"fmt"
	"time"
)

// AutomationType discriminates the automation config union.
type AutomationType string

const (
	AutomationWebScrape    AutomationType = "web_scrape"
	AutomationExcelProcess AutomationType = "excel_process"
)

// ExtractMode selects what a web scrape pulls out of the matched node.
type ExtractMode string

const (
	ExtractText  ExtractMode = "text"
	ExtractHTML  ExtractMode = "html"
	ExtractTable ExtractMode = "table"
)

// ExcelOperation is one step of a spreadsheet processing job.
type ExcelOperation string

const (
	OpDropNA  ExcelOperation = "dropna"
	OpDedup   ExcelOperation = "dedup"
	OpSort    ExcelOperation = "sort"
	OpSummary ExcelOperation = "summary"
)

// WebScrapeConfig configures a web_scrape automation.
type WebScrapeConfig struct {
	URL      string      `json:"url"`
	Selector string      `json:"selector"`
	Extract  ExtractMode `json:"extract"`
}

// ExcelProcessConfig configures an excel_process automation.
type ExcelProcessConfig struct {
	FilePath   string           `json:"file_path"`
	Operations []ExcelOperation `json:"operations"`
}

// AutomationConfig is a tagged union keyed by the definition's Type.
// Exactly one variant is non-nil on a well-formed definition.
type AutomationConfig struct {
	WebScrape    *WebScrapeConfig
	ExcelProcess *ExcelProcessConfig
}

// AutomationDefinition is a user-defined job. Immutable from the client's
// perspective: there is no edit flow, only create and delete.
type AutomationDefinition struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Type            AutomationType   `json:"type"`
	Config          AutomationConfig `json:"-"`
	ScheduleEnabled bool             `json:"schedule_enabled"`
	ScheduleCron    *string          `json:"schedule_cron"`
	CreatedAt       time.Time        `json:"created_at"`
}

// wireDefinition is the JSON shape; Config rides as a raw object decoded
// according to Type.
type wireDefinition struct {
	ID              string          `json:"id,omitempty"`
	Name            string          `json:"name"`
	Type            AutomationType  `json:"type"`
	Config          json.RawMessage `json:"config"`
	ScheduleEnabled bool            `json:"schedule_enabled"`
	ScheduleCron    *string         `json:"schedule_cron"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
}

func (d AutomationDefinition) MarshalJSON() ([]byte, error) {
	var cfg any
	switch d.Type {
	case AutomationWebScrape:
		if d.Config.WebScrape == nil {
			return nil, fmt.Errorf("web_scrape automation %q has no web scrape config", d.Name)
		}
		cfg = d.Config.WebScrape
	case AutomationExcelProcess:
		if d.Config.ExcelProcess == nil {
			return nil, fmt.Errorf("excel_process automation %q has no excel config", d.Name)
		}
		cfg = d.Config.ExcelProcess
	default:
		return nil, fmt.Errorf("unknown automation type %q", d.Type)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	w := wireDefinition{
		ID:              d.ID,
		Name:            d.Name,
		Type:            d.Type,
		Config:          raw,
		ScheduleEnabled: d.ScheduleEnabled,
		ScheduleCron:    d.ScheduleCron,
	}
	if !d.CreatedAt.IsZero() {
		w.CreatedAt = &d.CreatedAt
	}
	return json.Marshal(w)
}

func (d *AutomationDefinition) UnmarshalJSON(data []byte) error {
	var w wireDefinition
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*d = AutomationDefinition{
		ID:              w.ID,
		Name:            w.Name,
		Type:            w.Type,
		ScheduleEnabled: w.ScheduleEnabled,
		ScheduleCron:    w.ScheduleCron,
	}
	if w.CreatedAt != nil {
		d.CreatedAt = *w.CreatedAt
	}

	if len(w.Config) == 0 || string(w.Config) == "null" {
		return nil
	}
	switch w.Type {
	case AutomationWebScrape:
		var cfg WebScrapeConfig
		if err := json.Unmarshal(w.Config, &cfg); err != nil {
			return fmt.Errorf("decoding web_scrape config: %w", err)
		}
		d.Config.WebScrape = &cfg
	case AutomationExcelProcess:
		var cfg ExcelProcessConfig
		if err := json.Unmarshal(w.Config, &cfg); err != nil {
			return fmt.Errorf("decoding excel_process config: %w", err)
		}
		d.Config.ExcelProcess = &cfg
	default:
		return fmt.Errorf("unknown automation type %q", w.Type)
	}
	return nil
}

// Validate checks the invariants the backend expects on create: a config
// variant matching the type, and a cron string present iff scheduling is
// enabled.
func (d AutomationDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("automation name is required")
	}
	switch d.Type {
	case AutomationWebScrape:
		if d.Config.WebScrape == nil {
			return fmt.Errorf("web_scrape automation requires url/selector/extract config")
		}
	case AutomationExcelProcess:
		if d.Config.ExcelProcess == nil {
			return fmt.Errorf("excel_process automation requires file/operations config")
		}
	default:
		return fmt.Errorf("unknown automation type %q", d.Type)
	}
	if d.ScheduleEnabled && (d.ScheduleCron == nil || *d.ScheduleCron == "") {
		return fmt.Errorf("scheduled automation requires a cron expression")
	}
	if !d.ScheduleEnabled && d.ScheduleCron != nil {
		return fmt.Errorf("cron expression set but scheduling is disabled")
	}
	return nil
}

// RunStatus is the backend-reported state of one run. The set is closed;
// anything else renders through the unknown fallback.
type RunStatus string

const (
	RunQueued  RunStatus = "queued"
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// Terminal reports whether the run can no longer change state.
func (s RunStatus) Terminal() bool {
	return s == RunSuccess || s == RunFailed
}

// AutomationRun is one execution instance, read-only from the client.
type AutomationRun struct {
	ID            string          `json:"id"`
	AutomationID  string          `json:"automation_id"`
	Status        RunStatus       `json:"status"`
	StartedAt     *time.Time      `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at"`
	Log           *string         `json:"log"`
	ResultPayload json.RawMessage `json:"result_payload"`
}

// Duration returns finished−started and true when both timestamps are
// present; otherwise the duration is undefined and must not be shown.
func (r AutomationRun) Duration() (time.Duration, bool) {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0, false
	}
	return r.FinishedAt.Sub(*r.StartedAt), true
}

// DocType classifies a generated document.
type DocType string

const (
	DocReport   DocType = "report"
	DocOfficial DocType = "official"
	DocEmail    DocType = "email"
)

// DocumentRecord is a generated document.
type DocumentRecord struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	DocType       DocType   `json:"doc_type"`
	ContentPrompt string    `json:"content_prompt"`
	OutputContent string    `json:"output_content"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserInfo is the authenticated user's profile.
type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TurnMessage is one role+content pair on the chat wire. Timestamps never
// leave the client.
type TurnMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
