package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/maltedev/price-monitor/internal/models"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	worksheetRows = 1000
	worksheetCols = 10
)

var sheetsHeader = []interface{}{
	"product_name", "product_url", "store_name", "price_value", "timestamp",
}

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

func credentialOptions(credentialsFile, scope string, opts []option.ClientOption) ([]option.ClientOption, error) {
	if credentialsFile == "" {
		return nil, newError("sheets", ErrSinkUnauthenticated, errors.New("no credentials file"),
			"set GOOGLE_APPLICATION_CREDENTIALS to a service account JSON key")
	}
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, newError("sheets", ErrSinkUnauthenticated, err,
			fmt.Sprintf("credentials file %s is not readable", credentialsFile))
	}

	return append([]option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(scope),
	}, opts...), nil
}

// NewSheetsService authenticates with a service account key file.
func NewSheetsService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*sheets.Service, error) {
	opts, err := credentialOptions(credentialsFile, sheets.SpreadsheetsScope, opts)
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, newError("sheets", ErrSinkUnauthenticated, err,
			"the credentials file is not a valid service account key")
	}
	return svc, nil
}

// NewDriveService authenticates with the same key file, read-only, for
// looking spreadsheets up by name.
func NewDriveService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*drive.Service, error) {
	opts, err := credentialOptions(credentialsFile, drive.DriveMetadataReadonlyScope, opts)
	if err != nil {
		return nil, err
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, newError("sheets", ErrSinkUnauthenticated, err,
			"the credentials file is not a valid service account key")
	}
	return svc, nil
}

// SheetsSink appends the narrow row schema to one worksheet of a
// spreadsheet, creating the worksheet and its header row when needed.
type SheetsSink struct {
	svc       *sheets.Service
	drive     *drive.Service
	name      string
	worksheet string
	logger    *slog.Logger
	clock     func() time.Time

	mu            sync.Mutex
	spreadsheetID string
}

func NewSheetsSink(svc *sheets.Service, spreadsheetID, worksheet string, logger *slog.Logger) *SheetsSink {
	return &SheetsSink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		logger:        logger.With("component", "sheets_sink"),
		clock:         time.Now,
	}
}

// NewSheetsSinkByName opens the spreadsheet titled name, looked up through
// Drive on the first write.
func NewSheetsSinkByName(svc *sheets.Service, drv *drive.Service, name, worksheet string, logger *slog.Logger) *SheetsSink {
	s := NewSheetsSink(svc, "", worksheet, logger)
	s.drive = drv
	s.name = name
	return s
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) Write(ctx context.Context, results []models.ProductResult) (int, error) {
	rows := stamp(results, s.clock)
	if len(rows) == 0 {
		return 0, nil
	}

	if err := s.resolve(ctx); err != nil {
		return 0, err
	}

	if err := s.ensureWorksheet(ctx); err != nil {
		return 0, err
	}

	empty, err := s.isEmpty(ctx)
	if err != nil {
		return 0, err
	}

	values := make([][]interface{}, 0, len(rows)+1)
	if empty {
		values = append(values, sheetsHeader)
	}
	for _, r := range rows {
		values = append(values, []interface{}{
			r.ProductName,
			r.ProductURL,
			r.StoreName,
			r.PriceValue.InexactFloat64(),
			r.Timestamp.Format(TimestampLayout),
		})
	}

	_, err = s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.a1("A1"), &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, s.classify(err)
	}

	s.logger.Info("rows appended",
		"spreadsheet", s.spreadsheetID,
		"worksheet", s.worksheet,
		"rows", len(rows))

	return len(rows), nil
}

// resolve finds the ID of the first spreadsheet titled s.name that the
// service account can see. The ID is kept for later writes.
func (s *SheetsSink) resolve(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spreadsheetID != "" {
		return nil
	}
	if s.drive == nil {
		return newError(s.Name(), ErrSinkNotFound, errors.New("no spreadsheet configured"),
			"set SHEETS_SPREADSHEET or SHEETS_SPREADSHEET_ID")
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(s.name), spreadsheetMimeType)
	list, err := s.drive.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return s.classify(err)
	}
	if len(list.Files) == 0 {
		return newError(s.Name(), ErrSinkNotFound, fmt.Errorf("spreadsheet %q not found", s.name),
			"share the spreadsheet with the service account email from the credentials file")
	}

	s.spreadsheetID = list.Files[0].Id
	s.logger.Info("spreadsheet resolved", "name", s.name, "id", s.spreadsheetID)
	return nil
}

func escapeQuery(v string) string {
	return strings.NewReplacer(`\`, `\\`, "'", `\'`).Replace(v)
}

func (s *SheetsSink) ensureWorksheet(ctx context.Context) error {
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return s.classify(err)
	}

	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.worksheet {
			return nil
		}
	}

	s.logger.Info("creating worksheet", "worksheet", s.worksheet)

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: s.worksheet,
					GridProperties: &sheets.GridProperties{
						RowCount:    worksheetRows,
						ColumnCount: worksheetCols,
					},
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return s.classify(err)
	}
	return nil
}

func (s *SheetsSink) isEmpty(ctx context.Context) (bool, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("A1:E1")).Context(ctx).Do()
	if err != nil {
		return false, s.classify(err)
	}
	return len(resp.Values) == 0, nil
}

func (s *SheetsSink) a1(cells string) string {
	return "'" + strings.ReplaceAll(s.worksheet, "'", "''") + "'!" + cells
}

func (s *SheetsSink) classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return newError(s.Name(), ErrSinkUnauthenticated, err,
				"share the spreadsheet with the service account email from the credentials file")
		case http.StatusNotFound:
			return newError(s.Name(), ErrSinkNotFound, err,
				fmt.Sprintf("spreadsheet %q not found; check SHEETS_SPREADSHEET_ID", s.spreadsheetID))
		}
	}
	return newError(s.Name(), ErrSinkUnavailable, err, "")
}
