package mail

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// DefaultFetchLimit is the number of messages returned when the caller
// does not request an explicit limit.
const DefaultFetchLimit = 20

// FetchResult holds the outcome of one retrieval session.
type FetchResult struct {
	// Summaries are ordered newest-first by server sequence.
	Summaries []MessageSummary

	// Folder is the logical folder name the caller asked for.
	Folder string

	// Dropped counts messages that were listed but could not be fetched
	// or normalized. They are skipped without failing the session.
	Dropped int
}

// imapSession is the slice of IMAP client behavior the fetcher drives.
// It exists so tests can substitute a stub that counts connection and
// logout calls.
type imapSession interface {
	Login(username, password string) error
	Select(mailbox string) error
	SearchAll() ([]uint32, error)
	FetchRaw(seqNum uint32) ([]byte, error)
	Logout() error
}

// Fetcher retrieves message summaries from the IMAP server. Each call
// owns exactly one session for its entire lifetime: connect through
// logout, strictly sequential, never pooled or reused.
type Fetcher struct {
	host string
	port int

	// dial opens a secure channel to addr. Overridable in tests.
	dial func(addr string) (imapSession, error)
}

// NewFetcher creates a Fetcher for the given IMAP server.
func NewFetcher(host string, port int) *Fetcher {
	return &Fetcher{
		host: host,
		port: port,
		dial: dialIMAP,
	}
}

// Fetch opens a session, selects the requested logical folder, and
// returns up to limit summaries ordered newest-first. Failures before
// the folder is selected abort with no partial data; a failure on one
// message afterwards only drops that message.
func (f *Fetcher) Fetch(
	_ context.Context,
	creds Credentials,
	folder string,
	limit int,
) (*FetchResult, error) {
	if creds.Empty() {
		return nil, &AuthRequiredError{}
	}
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	if folder == "" {
		folder = "inbox"
	}
	mailbox := ResolveFolder(folder)

	addr := net.JoinHostPort(f.host, strconv.Itoa(f.port))
	session, err := f.dial(addr)
	if err != nil {
		return nil, &ConnectivityError{Addr: addr, Err: err}
	}
	defer func() { _ = session.Logout() }()

	if err := session.Login(creds.Address, creds.Secret); err != nil {
		return nil, &AuthFailedError{Op: "login", Err: err}
	}

	// Some servers report an unknown mailbox the same way they report a
	// rejected login, so both collapse into one auth failure.
	if err := session.Select(mailbox); err != nil {
		return nil, &AuthFailedError{Op: "select " + mailbox, Err: err}
	}

	seqNums, err := session.SearchAll()
	if err != nil {
		return nil, &ProtocolError{Op: "listing " + mailbox, Err: err}
	}

	// The server lists oldest-first; keep the most recent limit entries
	// and reverse them so the newest message comes first.
	if len(seqNums) > limit {
		seqNums = seqNums[len(seqNums)-limit:]
	}

	result := &FetchResult{Folder: folder}
	for i := len(seqNums) - 1; i >= 0; i-- {
		seqNum := seqNums[i]

		raw, err := session.FetchRaw(seqNum)
		if err != nil {
			result.Dropped++
			continue
		}

		summary, err := Normalize(int(seqNum), raw)
		if err != nil {
			result.Dropped++
			continue
		}
		result.Summaries = append(result.Summaries, summary)
	}

	return result, nil
}

// dialIMAP opens an implicit-TLS connection to the IMAP server.
func dialIMAP(addr string) (imapSession, error) {
	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, err
	}
	return &imapClientSession{client: client}, nil
}

// imapClientSession adapts go-imap's client to the imapSession interface.
type imapClientSession struct {
	client *imapclient.Client
}

func (s *imapClientSession) Login(username, password string) error {
	return s.client.Login(username, password).Wait()
}

func (s *imapClientSession) Select(mailbox string) error {
	_, err := s.client.Select(mailbox, nil).Wait()
	return err
}

func (s *imapClientSession) SearchAll() ([]uint32, error) {
	data, err := s.client.Search(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, err
	}
	return data.AllSeqNums(), nil
}

func (s *imapClientSession) FetchRaw(seqNum uint32) ([]byte, error) {
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := s.client.Fetch(imap.SeqSetNum(seqNum), &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message %d not found", seqNum)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message %d: %w", seqNum, err)
	}

	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, fmt.Errorf("message %d has no body section", seqNum)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetching message %d: %w", seqNum, err)
	}
	return raw, nil
}

func (s *imapClientSession) Logout() error {
	return s.client.Logout().Wait()
}
