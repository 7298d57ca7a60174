package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"rentroll/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads the rent roll from, and appends alerts to, one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	alertsSheet   string
	rentRollSheet string
}

// Config names the spreadsheet and its tabs.
type Config struct {
	SpreadsheetID string
	AlertsSheet   string
	RentRollSheet string
}

// AlertRow is one line of the alerts sheet.
type AlertRow struct {
	ScannedAt time.Time
	DueDate   string
	Priority  string
	Kind      string
	Title     string
	Message   string
	SubjectID string
	AlertID   string
}

// NewClient creates a Sheets client authenticated with service account
// credentials from the environment.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newWithService(svc, cfg), nil
}

func newWithService(svc *gsheet.Service, cfg Config) *Client {
	alerts := strings.TrimSpace(cfg.AlertsSheet)
	if alerts == "" {
		alerts = "Alerts"
	}
	rentRoll := strings.TrimSpace(cfg.RentRollSheet)
	if rentRoll == "" {
		rentRoll = "Rent Roll"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		alertsSheet:   alerts,
		rentRollSheet: rentRoll,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials
// from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, falling back to a saved OAuth token.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		if ts := oauthTokenSource(ctx); ts != nil {
			slog.InfoContext(ctx, "Creating Google Sheets service with OAuth token", "token_file", TokenFile())
			service, err := gsheet.NewService(ctx, goption.WithTokenSource(ts))
			if err != nil {
				return nil, fmt.Errorf("create sheets service: %w", err)
			}
			return service, nil
		}
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS, or run sheets-auth)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendAlert writes one alert row at the end of the alerts sheet and
// returns the updated range.
func (c *Client) AppendAlert(ctx context.Context, row AlertRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:H", c.alertsSheet)
	vr := &gsheet.ValueRange{Values: [][]any{{
		row.ScannedAt.UTC().Format(time.RFC3339),
		row.DueDate,
		row.Priority,
		row.Kind,
		row.Title,
		row.Message,
		row.SubjectID,
		row.AlertID,
	}}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append alert to %s: %w", c.alertsSheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Alert appended to sheet",
		"component", "sheets",
		"alert_id", row.AlertID,
		"sheets_ref", ref)
	return ref, nil
}

// ReadRentRoll reads the rent roll sheet into tenants. The first row must be
// a header naming at least the Tenant column.
func (c *Client) ReadRentRoll(ctx context.Context) ([]core.Tenant, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:Z", c.rentRollSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseRentRoll(resp.Values)
}
