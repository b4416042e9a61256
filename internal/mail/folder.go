package mail

import "strings"

// folderTable maps caller-facing logical folder names to the mailbox
// names used by the IMAP server.
var folderTable = map[string]string{
	"inbox":  "INBOX",
	"sent":   "Sent",
	"drafts": "Drafts",
	"spam":   "Spam",
	"trash":  "Trash",
}

// ResolveFolder maps a logical folder name to the server's mailbox name.
// The lookup is case-insensitive; unknown or empty names resolve to the
// inbox rather than failing.
func ResolveFolder(logical string) string {
	if mailbox, ok := folderTable[strings.ToLower(logical)]; ok {
		return mailbox
	}
	return "INBOX"
}
