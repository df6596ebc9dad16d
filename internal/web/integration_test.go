package web_test

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/vbonduro/actreport/internal/db"
	"github.com/vbonduro/actreport/internal/domain"
	"github.com/vbonduro/actreport/internal/draft"
	"github.com/vbonduro/actreport/internal/filestore/local"
	"github.com/vbonduro/actreport/internal/report"
	"github.com/vbonduro/actreport/internal/service"
	"github.com/vbonduro/actreport/internal/store"
	"github.com/vbonduro/actreport/internal/web"
	"github.com/vbonduro/actreport/internal/web/templates"
)

// stubRenderer writes a minimal PDF header instead of printing with a browser.
type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, doc *report.Document, w io.Writer) error {
	_, err := fmt.Fprintf(w, "%%PDF-1.4 activity %d", doc.ActivityID)
	return err
}

type stubCaptioner struct{}

func (stubCaptioner) Suggest(_ context.Context, r io.Reader, _ string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "Students at the workshop", nil
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// newTestServer sets up a real web.Server backed by in-memory SQLite and a
// file store in a temp directory.
func newTestServer(t *testing.T) (*httptest.Server, *service.ReportService) {
	t.Helper()
	database, err := db.OpenForTesting()
	if err != nil {
		t.Fatalf("OpenForTesting: %v", err)
	}
	files, err := local.NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewReportService(
		store.NewReportStore(database),
		draft.NewCollector(),
		files,
		stubRenderer{},
		stubCaptioner{},
		service.Settings{OutputDir: t.TempDir(), Header: report.Header{Institution: "Test University"}},
		logger,
	)
	srv := httptest.NewServer(web.NewServer(svc, templates.FS, logger))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv, svc
}

// noRedirect is a client that returns redirects instead of following them.
var noRedirect = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
}

// newDraft posts to /activities and returns the draft section URL it redirects to.
func newDraft(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := noRedirect.PostForm(srv.URL+"/activities", nil)
	if err != nil {
		t.Fatalf("POST /activities: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("POST /activities status %d, want 303", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.HasSuffix(loc, "/sections/general_info") {
		t.Fatalf("unexpected redirect %q", loc)
	}
	return loc
}

func draftID(t *testing.T, sectionURL string) string {
	t.Helper()
	parts := strings.Split(sectionURL, "/")
	if len(parts) < 3 {
		t.Fatalf("bad section url %q", sectionURL)
	}
	return parts[2]
}

func postSection(t *testing.T, srv *httptest.Server, draftID string, section domain.Section, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := http.PostForm(fmt.Sprintf("%s/drafts/%s/sections/%s", srv.URL, draftID, section), form)
	if err != nil {
		t.Fatalf("POST section %s: %v", section, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func upload(t *testing.T, srv *httptest.Server, draftID string, kind domain.FileKind, index int, data []byte) string {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := w.WriteField("index", fmt.Sprint(index)); err != nil {
		t.Fatalf("write index: %v", err)
	}
	fw, err := w.CreateFormFile("file", "upload.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write file data: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/drafts/%s/uploads/%s", srv.URL, draftID, kind), w.FormDataContentType(), body)
	if err != nil {
		t.Fatalf("POST upload: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status %d: %s", resp.StatusCode, b)
	}
	return string(b)
}

var generalInfo = url.Values{
	"activity_type": {"Seminar"},
	"start_date":    {"2025-03-10"},
	"venue":         {"Main Auditorium"},
}

// completeActivity fills every section through the service and saves it.
func completeActivity(t *testing.T, srv *httptest.Server, svc *service.ReportService) int64 {
	t.Helper()
	id := draftID(t, newDraft(t, srv))
	_, _, err := svc.UpdateSection(id, domain.SectionGeneralInfo, func(r *domain.Report) error {
		r.Activity.ActivityType = "Seminar"
		r.Activity.StartDate = "2025-03-10"
		r.Activity.Venue = "Main Auditorium"
		r.Activity.Highlights = "Talks and demos."
		r.Activity.KeyTakeaway = "Practice matters."
		r.Speakers = []domain.Speaker{{Name: "Dr. Ada"}}
		r.Participants = []domain.Participant{{Type: domain.ParticipantStudent, Count: 30}}
		r.Preparers = []domain.Preparer{{Name: "R. Rao", Designation: "Professor"}}
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	upload(t, srv, id, domain.FileActivityPhoto, 0, pngImage(t))
	upload(t, srv, id, domain.FileActivityPhoto, 0, pngImage(t))
	if err := svc.SaveDraft(context.Background(), id); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	d, err := svc.Draft(id)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	return d.ActivityID
}

func TestIntegration_ListActivities(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/activities")
	if err != nil {
		t.Fatalf("GET /activities: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "No activities yet") {
		t.Errorf("empty list not rendered:\n%s", body)
	}
}

func TestIntegration_SaveGeneralInfo(t *testing.T) {
	srv, _ := newTestServer(t)
	loc := newDraft(t, srv)

	resp, err := http.Get(srv.URL + loc)
	if err != nil {
		t.Fatalf("GET %s: %v", loc, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET section status %d", resp.StatusCode)
	}

	form := url.Values{"op": {"save"}}
	for k, v := range generalInfo {
		form[k] = v
	}
	resp, body := postSection(t, srv, draftID(t, loc), domain.SectionGeneralInfo, form)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Saved") {
		t.Errorf("save message missing:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/activities")
	if err != nil {
		t.Fatalf("GET /activities: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	list, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(list), "Main Auditorium") {
		t.Errorf("saved activity not listed:\n%s", list)
	}
}

func TestIntegration_SaveRequiresActivityType(t *testing.T) {
	srv, _ := newTestServer(t)
	id := draftID(t, newDraft(t, srv))

	_, body := postSection(t, srv, id, domain.SectionGeneralInfo, url.Values{"op": {"save"}, "start_date": {"2025-03-10"}})
	if !strings.Contains(body, "Not saved") || !strings.Contains(body, "Activity type is required") {
		t.Errorf("expected refusal:\n%s", body)
	}
}

func TestIntegration_SectionNavigation(t *testing.T) {
	srv, _ := newTestServer(t)
	id := draftID(t, newDraft(t, srv))

	form := url.Values{"op": {"next"}}
	for k, v := range generalInfo {
		form[k] = v
	}
	resp, _ := postSection(t, srv, id, domain.SectionGeneralInfo, form)
	want := fmt.Sprintf("/drafts/%s/sections/speaker_details", id)
	if got := resp.Header.Get("HX-Redirect"); got != want {
		t.Errorf("HX-Redirect = %q, want %q", got, want)
	}
}

func TestIntegration_AddAndRemoveSpeaker(t *testing.T) {
	srv, _ := newTestServer(t)
	id := draftID(t, newDraft(t, srv))

	_, body := postSection(t, srv, id, domain.SectionSpeakerDetails, url.Values{"op": {"add"}})
	if strings.Count(body, `name="speaker_name"`) != 1 {
		t.Fatalf("expected one speaker row:\n%s", body)
	}

	_, body = postSection(t, srv, id, domain.SectionSpeakerDetails, url.Values{
		"speaker_name":    {""},
		"speaker_contact": {"not a contact"},
	})
	if !strings.Contains(body, "Speaker 1: Name is required") {
		t.Errorf("missing name error:\n%s", body)
	}
	if !strings.Contains(body, "valid email address or phone number") {
		t.Errorf("missing contact error:\n%s", body)
	}

	_, body = postSection(t, srv, id, domain.SectionSpeakerDetails, url.Values{
		"op":           {"remove:0"},
		"speaker_name": {"Dr. Ada"},
	})
	if strings.Contains(body, `name="speaker_name"`) {
		t.Errorf("speaker row not removed:\n%s", body)
	}
}

func TestIntegration_UnknownSectionAndDraft(t *testing.T) {
	srv, _ := newTestServer(t)
	id := draftID(t, newDraft(t, srv))

	resp, err := http.Get(fmt.Sprintf("%s/drafts/%s/sections/nope", srv.URL, id))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown section status %d, want 404", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/drafts/missing/sections/general_info")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown draft status %d, want 404", resp.StatusCode)
	}
}

func TestIntegration_UploadPhotoAndServeFile(t *testing.T) {
	srv, _ := newTestServer(t)
	id := draftID(t, newDraft(t, srv))

	body := upload(t, srv, id, domain.FileActivityPhoto, 0, pngImage(t))
	if !strings.Contains(body, "Uploaded") {
		t.Fatalf("upload message missing:\n%s", body)
	}
	start := strings.Index(body, `src="/files/`)
	if start < 0 {
		t.Fatalf("no photo thumbnail in:\n%s", body)
	}
	rest := body[start+len(`src="`):]
	fileURL := rest[:strings.IndexByte(rest, '"')]

	resp, err := http.Get(srv.URL + fileURL)
	if err != nil {
		t.Fatalf("GET %s: %v", fileURL, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET file status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
}

func TestIntegration_UploadRejectsNonImage(t *testing.T) {
	srv, _ := newTestServer(t)
	id := draftID(t, newDraft(t, srv))

	body := upload(t, srv, id, domain.FileActivityPhoto, 0, []byte("%PDF-1.4 not an image"))
	if !strings.Contains(body, "valid file type") {
		t.Errorf("expected file type error:\n%s", body)
	}
	if strings.Contains(body, `src="/files/`) {
		t.Errorf("rejected file was attached:\n%s", body)
	}
}

func TestIntegration_FileTraversal(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/files/..%2f..%2fetc%2fpasswd")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status %d, want 404", resp.StatusCode)
	}
}

func TestIntegration_SuggestCaption(t *testing.T) {
	srv, _ := newTestServer(t)
	id := draftID(t, newDraft(t, srv))
	upload(t, srv, id, domain.FileActivityPhoto, 0, pngImage(t))

	resp, err := http.PostForm(fmt.Sprintf("%s/drafts/%s/photos/0/caption", srv.URL, id), nil)
	if err != nil {
		t.Fatalf("POST caption: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Students at the workshop") {
		t.Errorf("caption missing:\n%s", body)
	}

	resp2, err := http.PostForm(fmt.Sprintf("%s/drafts/%s/photos/5/caption", srv.URL, id), nil)
	if err != nil {
		t.Fatalf("POST caption: %v", err)
	}
	_ = resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("out of range status %d, want 400", resp2.StatusCode)
	}
}

func TestIntegration_GenerateReport(t *testing.T) {
	srv, svc := newTestServer(t)
	id := completeActivity(t, srv, svc)

	resp, err := http.Get(fmt.Sprintf("%s/activities/%d/report.pdf", srv.URL, id))
	if err != nil {
		t.Fatalf("GET report: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := fmt.Sprintf(`attachment; filename="activity_report_%d.pdf"`, id)
	if cd := resp.Header.Get("Content-Disposition"); cd != want {
		t.Errorf("Content-Disposition = %q, want %q", cd, want)
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Errorf("body is not a PDF: %q", body)
	}
}

func TestIntegration_GenerateReportValidationFailure(t *testing.T) {
	srv, _ := newTestServer(t)
	id := draftID(t, newDraft(t, srv))
	form := url.Values{"op": {"save"}}
	for k, v := range generalInfo {
		form[k] = v
	}
	postSection(t, srv, id, domain.SectionGeneralInfo, form)

	resp, err := http.Get(srv.URL + "/activities/1/report.pdf")
	if err != nil {
		t.Fatalf("GET report: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "Minimum 2 photos required") {
		t.Errorf("photo error missing:\n%s", body)
	}
}

func TestIntegration_ReportStream(t *testing.T) {
	srv, svc := newTestServer(t)
	id := completeActivity(t, srv, svc)

	resp, err := http.Get(fmt.Sprintf("%s/activities/%d/report/stream?no_watermark=1", srv.URL, id))
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	var stages []string
	var done string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			stages = append(stages, strings.TrimPrefix(line, "event: "))
		}
		if strings.HasPrefix(line, "data: ") && len(stages) > 0 && stages[len(stages)-1] == "done" {
			done = line
			break
		}
	}
	if len(stages) == 0 || stages[len(stages)-1] != "done" {
		t.Fatalf("stream did not finish: %v", stages)
	}
	if !strings.Contains(done, fmt.Sprintf("/activities/%d/report/file", id)) {
		t.Errorf("done event has no download url: %s", done)
	}

	file, err := http.Get(fmt.Sprintf("%s/activities/%d/report/file", srv.URL, id))
	if err != nil {
		t.Fatalf("GET report file: %v", err)
	}
	t.Cleanup(func() { _ = file.Body.Close() })
	if file.StatusCode != http.StatusOK {
		t.Errorf("report file status %d", file.StatusCode)
	}
}

func TestIntegration_PreviewAndExport(t *testing.T) {
	srv, svc := newTestServer(t)
	id := completeActivity(t, srv, svc)

	resp, err := http.Get(fmt.Sprintf("%s/activities/%d/preview", srv.URL, id))
	if err != nil {
		t.Fatalf("GET preview: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Test University") {
		t.Errorf("preview missing header:\n%s", body)
	}

	xlsx, err := http.Get(fmt.Sprintf("%s/activities/%d/export.xlsx", srv.URL, id))
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	t.Cleanup(func() { _ = xlsx.Body.Close() })
	data, _ := io.ReadAll(xlsx.Body)
	if xlsx.StatusCode != http.StatusOK || !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("export status %d, not a workbook", xlsx.StatusCode)
	}
}

func TestIntegration_Validation(t *testing.T) {
	srv, svc := newTestServer(t)
	id := completeActivity(t, srv, svc)

	resp, err := http.Get(fmt.Sprintf("%s/activities/%d/validation", srv.URL, id))
	if err != nil {
		t.Fatalf("GET validation: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Ready to generate") {
		t.Errorf("expected a clean result:\n%s", body)
	}
}

func TestIntegration_EditAndDeleteActivity(t *testing.T) {
	srv, svc := newTestServer(t)
	id := completeActivity(t, srv, svc)

	resp, err := noRedirect.Get(fmt.Sprintf("%s/activities/%d/edit", srv.URL, id))
	if err != nil {
		t.Fatalf("GET edit: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("edit status %d, want 303", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/activities/%d", srv.URL, id), nil)
	if err != nil {
		t.Fatalf("new DELETE request: %v", err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	_ = resp.Body.Close()
	if got := resp.Header.Get("HX-Redirect"); got != "/activities" {
		t.Errorf("HX-Redirect = %q, want /activities", got)
	}

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE again: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status %d, want 404", resp.StatusCode)
	}
}

func TestIntegration_DiscardDraft(t *testing.T) {
	srv, _ := newTestServer(t)
	id := draftID(t, newDraft(t, srv))

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/drafts/%s", srv.URL, id), nil)
	if err != nil {
		t.Fatalf("new DELETE request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE draft: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	resp, err = http.Get(fmt.Sprintf("%s/drafts/%s/sections/general_info", srv.URL, id))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("discarded draft status %d, want 404", resp.StatusCode)
	}
}
