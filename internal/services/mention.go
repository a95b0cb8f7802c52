package services

import (
	"fmt"
	"strings"

	"github.com/Yokesh17/Project--Management/internal/models"
)

// mentionHandles returns the two spellings that address u in comment text:
// "@" plus the first word of the full name (or the email local part when
// there is no name), and "@" plus the full email.
func mentionHandles(u *models.User) (short, full string) {
	if fields := strings.Fields(u.FullName); len(fields) > 0 {
		short = "@" + fields[0]
	} else {
		short = "@" + strings.SplitN(u.Email, "@", 2)[0]
	}
	return short, "@" + u.Email
}

// ResolveMentions picks the candidates addressed by text. Matching is a plain
// case-sensitive substring test, so "@Al" also matches inside "@Alice". The
// author is never returned and each user appears at most once, in candidate
// order.
func ResolveMentions(text string, candidates []models.User, authorID uint) []models.User {
	seen := make(map[uint]bool, len(candidates))
	var mentioned []models.User
	for i := range candidates {
		u := &candidates[i]
		if u.ID == authorID || seen[u.ID] {
			continue
		}
		short, full := mentionHandles(u)
		if strings.Contains(text, short) || strings.Contains(text, full) {
			seen[u.ID] = true
			mentioned = append(mentioned, *u)
		}
	}
	return mentioned
}

func mentionMessage(author *models.User, taskTitle string) string {
	name := author.FullName
	if name == "" {
		name = "User"
	}
	return fmt.Sprintf("%s mentioned you in a comment on '%s'", name, taskTitle)
}
