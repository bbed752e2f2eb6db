package platform

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestAutomationDefinition_UnmarshalWebScrape(t *testing.T) {
	raw := `{
		"id": "a1",
		"name": "Daily scrape",
		"type": "web_scrape",
		"config": {"url": "https://x.test", "selector": "body", "extract": "text"},
		"schedule_enabled": false,
		"schedule_cron": null,
		"created_at": "2025-06-01T09:00:00Z"
	}`

	var def AutomationDefinition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if def.Type != AutomationWebScrape {
		t.Errorf("type = %q, want web_scrape", def.Type)
	}
	if def.Config.ExcelProcess != nil {
		t.Error("excel variant should be nil for web_scrape")
	}
	cfg := def.Config.WebScrape
	if cfg == nil {
		t.Fatal("web scrape config missing")
	}
	if cfg.URL != "https://x.test" || cfg.Selector != "body" || cfg.Extract != ExtractText {
		t.Errorf("config = %+v", *cfg)
	}
	if def.ScheduleCron != nil {
		t.Error("cron should be nil when scheduling disabled")
	}
}

func TestAutomationDefinition_UnmarshalExcelProcess(t *testing.T) {
	raw := `{
		"id": "a2",
		"name": "Monthly cleanup",
		"type": "excel_process",
		"config": {"file_path": "/data/report.xlsx", "operations": ["dropna", "dedup"]},
		"schedule_enabled": true,
		"schedule_cron": "0 9 1 * *",
		"created_at": "2025-06-01T09:00:00Z"
	}`

	var def AutomationDefinition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	cfg := def.Config.ExcelProcess
	if cfg == nil {
		t.Fatal("excel config missing")
	}
	if cfg.FilePath != "/data/report.xlsx" {
		t.Errorf("file_path = %q", cfg.FilePath)
	}
	if len(cfg.Operations) != 2 || cfg.Operations[0] != OpDropNA || cfg.Operations[1] != OpDedup {
		t.Errorf("operations = %v", cfg.Operations)
	}
	if def.ScheduleCron == nil || *def.ScheduleCron != "0 9 1 * *" {
		t.Errorf("cron = %v", def.ScheduleCron)
	}
}

func TestAutomationDefinition_UnmarshalUnknownType(t *testing.T) {
	raw := `{"name":"x","type":"ftp_sync","config":{},"schedule_enabled":false}`
	var def AutomationDefinition
	err := json.Unmarshal([]byte(raw), &def)
	if err == nil || !strings.Contains(err.Error(), "ftp_sync") {
		t.Errorf("err = %v, want unknown type error naming ftp_sync", err)
	}
}

func TestAutomationDefinition_MarshalRoundTrip(t *testing.T) {
	def := AutomationDefinition{
		Name: "Daily scrape",
		Type: AutomationWebScrape,
		Config: AutomationConfig{
			WebScrape: &WebScrapeConfig{URL: "https://x.test", Selector: "body", Extract: ExtractText},
		},
	}

	data, err := json.Marshal(def)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("wire parse: %v", err)
	}
	cfg, ok := wire["config"].(map[string]any)
	if !ok {
		t.Fatalf("config on wire = %T", wire["config"])
	}
	if cfg["url"] != "https://x.test" {
		t.Errorf("wire config url = %v", cfg["url"])
	}
	if _, present := wire["created_at"]; present {
		t.Error("zero created_at should be omitted on create")
	}
	if wire["schedule_cron"] != nil {
		t.Errorf("wire schedule_cron = %v, want null", wire["schedule_cron"])
	}
}

func TestAutomationDefinition_Validate(t *testing.T) {
	ws := &WebScrapeConfig{URL: "https://x.test", Selector: "body", Extract: ExtractText}

	tests := []struct {
		name    string
		def     AutomationDefinition
		wantErr bool
	}{
		{
			name: "manual web scrape",
			def:  AutomationDefinition{Name: "s", Type: AutomationWebScrape, Config: AutomationConfig{WebScrape: ws}},
		},
		{
			name: "scheduled with cron",
			def: AutomationDefinition{
				Name: "s", Type: AutomationWebScrape,
				Config:          AutomationConfig{WebScrape: ws},
				ScheduleEnabled: true, ScheduleCron: strPtr("0 * * * *"),
			},
		},
		{
			name: "scheduled without cron",
			def: AutomationDefinition{
				Name: "s", Type: AutomationWebScrape,
				Config: AutomationConfig{WebScrape: ws}, ScheduleEnabled: true,
			},
			wantErr: true,
		},
		{
			name: "cron without scheduling",
			def: AutomationDefinition{
				Name: "s", Type: AutomationWebScrape,
				Config: AutomationConfig{WebScrape: ws}, ScheduleCron: strPtr("0 * * * *"),
			},
			wantErr: true,
		},
		{
			name:    "type/config mismatch",
			def:     AutomationDefinition{Name: "s", Type: AutomationExcelProcess, Config: AutomationConfig{WebScrape: ws}},
			wantErr: true,
		},
		{
			name:    "missing name",
			def:     AutomationDefinition{Type: AutomationWebScrape, Config: AutomationConfig{WebScrape: ws}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAutomationRun_Duration(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(4500 * time.Millisecond)

	run := AutomationRun{StartedAt: &start, FinishedAt: &end}
	d, ok := run.Duration()
	if !ok || d != 4500*time.Millisecond {
		t.Errorf("Duration() = %v, %v", d, ok)
	}

	for _, r := range []AutomationRun{
		{},
		{StartedAt: &start},
		{FinishedAt: &end},
	} {
		if _, ok := r.Duration(); ok {
			t.Errorf("Duration() defined for %+v, want undefined", r)
		}
	}
}

func TestRunStatus_Terminal(t *testing.T) {
	cases := map[RunStatus]bool{
		RunQueued:           false,
		RunRunning:          false,
		RunSuccess:          true,
		RunFailed:           true,
		RunStatus("zombie"): false,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Errorf("%q.Terminal() = %v, want %v", status, got, want)
		}
	}
}
