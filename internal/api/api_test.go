package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr-poehali-dev/mailgate/internal/account"
	"github.com/pr-poehali-dev/mailgate/internal/api"
	"github.com/pr-poehali-dev/mailgate/internal/mail"
)

type fetcherStub struct {
	result *mail.FetchResult
	err    error
	calls  int
}

func (f *fetcherStub) Fetch(_ context.Context, _ mail.Credentials, _ string, _ int) (*mail.FetchResult, error) {
	f.calls++
	return f.result, f.err
}

type senderStub struct {
	err   error
	calls int
	last  mail.OutgoingMessage
}

func (s *senderStub) Send(_ context.Context, _ mail.Credentials, msg mail.OutgoingMessage) error {
	s.calls++
	s.last = msg
	return s.err
}

type directoryStub struct {
	accounts  []account.Account
	createdID int64
	err       error
}

func (d *directoryStub) List(_ context.Context) ([]account.Account, error) {
	return d.accounts, d.err
}

func (d *directoryStub) Create(_ context.Context, _, _, _ string, _ int) (int64, error) {
	return d.createdID, d.err
}

func (d *directoryStub) Update(_ context.Context, _ int64, _ string, _ int, _ bool) error {
	return d.err
}

func (d *directoryStub) Delete(_ context.Context, _ int64) error {
	return d.err
}

func newTestServer(f api.Fetcher, s api.Sender, d api.Directory) *httptest.Server {
	return httptest.NewServer(api.NewHandler(f, s, d, nil).Routes())
}

func doRequest(t *testing.T, method, url string, body []byte, authed bool) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if authed {
		req.Header.Set("X-User-Email", "user@example.com")
		req.Header.Set("X-User-Password", "secret")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusOK || method != http.MethodOptions {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func TestFetchRequiresCredentials(t *testing.T) {
	fetcher := &fetcherStub{}
	srv := newTestServer(fetcher, &senderStub{}, &directoryStub{})
	defer srv.Close()

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/mail/fetch", nil, false)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication required", body["error"])
	assert.Zero(t, fetcher.calls, "transport core must not be reached")
}

func TestFetchSuccessEnvelope(t *testing.T) {
	fetcher := &fetcherStub{result: &mail.FetchResult{
		Folder: "inbox",
		Summaries: []mail.MessageSummary{
			{ID: 2, From: "a@example.com", Subject: "Hi", Preview: "yo", Content: "yo", IsRead: true},
			{ID: 1, From: "b@example.com", Subject: "Old", IsRead: true},
		},
	}}
	srv := newTestServer(fetcher, &senderStub{}, &directoryStub{})
	defer srv.Close()

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/mail/fetch?folder=inbox&limit=5", nil, true)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "inbox", body["folder"])
	assert.Equal(t, float64(2), body["count"])

	emails, ok := body["emails"].([]any)
	require.True(t, ok)
	require.Len(t, emails, 2)
	first := emails[0].(map[string]any)
	assert.Equal(t, float64(2), first["id"])
	assert.Equal(t, "Hi", first["subject"])
	assert.Equal(t, true, first["isRead"])
	assert.Equal(t, false, first["hasAttachment"])
}

func TestFetchEmptyFolderReturnsEmptyList(t *testing.T) {
	fetcher := &fetcherStub{result: &mail.FetchResult{Folder: "inbox"}}
	srv := newTestServer(fetcher, &senderStub{}, &directoryStub{})
	defer srv.Close()

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/mail/fetch", nil, true)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	emails, ok := body["emails"].([]any)
	require.True(t, ok, "emails must be a list, not null")
	assert.Empty(t, emails)
	assert.Equal(t, float64(0), body["count"])
}

func TestFetchAuthFailure(t *testing.T) {
	fetcher := &fetcherStub{err: &mail.AuthFailedError{Op: "login", Err: errors.New("NO")}}
	srv := newTestServer(fetcher, &senderStub{}, &directoryStub{})
	defer srv.Close()

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/mail/fetch", nil, true)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Authentication failed or folder not found", body["error"])
}

func TestFetchServerError(t *testing.T) {
	fetcher := &fetcherStub{err: &mail.ProtocolError{Op: "listing", Err: errors.New("boom")}}
	srv := newTestServer(fetcher, &senderStub{}, &directoryStub{})
	defer srv.Close()

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/mail/fetch", nil, true)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "Server error")
}

func TestFetchInvalidLimit(t *testing.T) {
	fetcher := &fetcherStub{result: &mail.FetchResult{}}
	srv := newTestServer(fetcher, &senderStub{}, &directoryStub{})
	defer srv.Close()

	resp, _ := doRequest(t, http.MethodGet, srv.URL+"/mail/fetch?limit=nope", nil, true)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, fetcher.calls)
}

func TestFetchMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fetcherStub{}, &senderStub{}, &directoryStub{})
	defer srv.Close()

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/mail/fetch", nil, true)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestFetchPreflight(t *testing.T) {
	srv := newTestServer(&fetcherStub{}, &senderStub{}, &directoryStub{})
	defer srv.Close()

	resp, _ := doRequest(t, http.MethodOptions, srv.URL+"/mail/fetch", nil, false)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GET, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "X-User-Email")
	assert.Equal(t, "86400", resp.Header.Get("Access-Control-Max-Age"))
}

func TestSendSuccess(t *testing.T) {
	sender := &senderStub{}
	srv := newTestServer(&fetcherStub{}, sender, &directoryStub{})
	defer srv.Close()

	payload := []byte(`{"to":"bob@example.com","subject":"Hi","content":"Hello"}`)
	resp, body := doRequest(t, http.MethodPost, srv.URL+"/mail/send", payload, true)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Email sent successfully", body["message"])
	assert.Equal(t, "bob@example.com", body["to"])

	require.Equal(t, 1, sender.calls)
	assert.Equal(t, "user@example.com", sender.last.From, "sender comes from the credential")
	assert.Equal(t, "bob@example.com", sender.last.To)
}

func TestSendValidatesFields(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{name: "missing to", payload: `{"subject":"Hi","content":"Hello"}`},
		{name: "missing subject", payload: `{"to":"bob@example.com","content":"Hello"}`},
		{name: "missing content", payload: `{"to":"bob@example.com","subject":"Hi"}`},
		{name: "empty body", payload: `{}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &senderStub{}
			srv := newTestServer(&fetcherStub{}, sender, &directoryStub{})
			defer srv.Close()

			resp, body := doRequest(t, http.MethodPost, srv.URL+"/mail/send", []byte(tc.payload), true)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "To, subject and content are required", body["error"])
			assert.Zero(t, sender.calls, "no session may be opened")
		})
	}
}

func TestSendRequiresCredentials(t *testing.T) {
	sender := &senderStub{}
	srv := newTestServer(&fetcherStub{}, sender, &directoryStub{})
	defer srv.Close()

	payload := []byte(`{"to":"bob@example.com","subject":"Hi","content":"Hello"}`)
	resp, body := doRequest(t, http.MethodPost, srv.URL+"/mail/send", payload, false)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication required", body["error"])
	assert.Zero(t, sender.calls)
}

func TestSendAuthFailure(t *testing.T) {
	sender := &senderStub{err: &mail.AuthFailedError{Op: "smtp auth", Err: errors.New("535")}}
	srv := newTestServer(&fetcherStub{}, sender, &directoryStub{})
	defer srv.Close()

	payload := []byte(`{"to":"bob@example.com","subject":"Hi","content":"Hello"}`)
	resp, body := doRequest(t, http.MethodPost, srv.URL+"/mail/send", payload, true)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Authentication failed", body["error"])
}

func TestSendProtocolFailure(t *testing.T) {
	sender := &senderStub{err: &mail.ProtocolError{Op: "sending message", Err: errors.New("552 too large")}}
	srv := newTestServer(&fetcherStub{}, sender, &directoryStub{})
	defer srv.Close()

	payload := []byte(`{"to":"bob@example.com","subject":"Hi","content":"Hello"}`)
	resp, body := doRequest(t, http.MethodPost, srv.URL+"/mail/send", payload, true)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["error"], "SMTP error")
	assert.Contains(t, body["error"], "552 too large")
}

func TestAccountsListEnvelope(t *testing.T) {
	dir := &directoryStub{accounts: []account.Account{
		{ID: 2, Email: "boris@nargizamail.ru", QuotaMB: 1024, IsActive: true},
		{ID: 1, Email: "anna@nargizamail.ru", QuotaMB: 2048, IsActive: true},
	}}
	srv := newTestServer(&fetcherStub{}, &senderStub{}, dir)
	defer srv.Close()

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/accounts", nil, false)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["total"])
}

func TestAccountsCreate(t *testing.T) {
	dir := &directoryStub{createdID: 7}
	srv := newTestServer(&fetcherStub{}, &senderStub{}, dir)
	defer srv.Close()

	payload := []byte(`{"email":"anna@nargizamail.ru","password":"secret","fullName":"Anna","quotaMb":2048}`)
	resp, body := doRequest(t, http.MethodPost, srv.URL+"/accounts", payload, false)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Account created", body["message"])
	assert.Equal(t, float64(7), body["account_id"])
}

func TestAccountsCreateRequiresEmailAndPassword(t *testing.T) {
	srv := newTestServer(&fetcherStub{}, &senderStub{}, &directoryStub{})
	defer srv.Close()

	payload := []byte(`{"fullName":"Anna"}`)
	resp, body := doRequest(t, http.MethodPost, srv.URL+"/accounts", payload, false)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email and password required", body["error"])
}

func TestCORSHeaderOnResponses(t *testing.T) {
	srv := newTestServer(&fetcherStub{result: &mail.FetchResult{Folder: "inbox"}}, &senderStub{}, &directoryStub{})
	defer srv.Close()

	resp, _ := doRequest(t, http.MethodGet, srv.URL+"/mail/fetch", nil, true)

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
