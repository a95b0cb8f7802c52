package services

import (
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/Yokesh17/Project--Management/internal/config"
	"github.com/go-ldap/ldap/v3"
)

var ErrLDAPDisabled = errors.New("LDAP is not enabled")

type LDAPService struct {
	config *config.LDAPConfig
}

func NewLDAPService(cfg *config.LDAPConfig) *LDAPService {
	return &LDAPService{config: cfg}
}

func (s *LDAPService) IsEnabled() bool {
	return s != nil && s.config != nil && s.config.Enabled
}

type LDAPUser struct {
	DN       string
	Email    string
	FullName string
}

// Authenticate looks the login up with the service account, then binds as the
// found entry to check the password. The entry must carry a mail attribute,
// since accounts are keyed by email.
func (s *LDAPService) Authenticate(login, password string) (*LDAPUser, error) {
	if !s.IsEnabled() {
		return nil, ErrLDAPDisabled
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var conn *ldap.Conn
	var err error
	if s.config.UseSSL {
		conn, err = ldap.DialURL("ldaps://"+addr, ldap.DialWithTLSConfig(&tls.Config{ServerName: s.config.Host}))
	} else {
		conn, err = ldap.DialURL("ldap://" + addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}
	defer conn.Close()

	if s.config.BindDN != "" {
		if err := conn.Bind(s.config.BindDN, s.config.BindPassword); err != nil {
			return nil, fmt.Errorf("failed to bind with service account: %w", err)
		}
	}

	searchRequest := ldap.NewSearchRequest(
		s.config.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf(s.config.UserFilter, ldap.EscapeFilter(login)),
		[]string{"dn", "cn", "displayName", "mail"},
		nil,
	)

	result, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("LDAP search failed: %w", err)
	}
	switch len(result.Entries) {
	case 0:
		return nil, errors.New("user not found in LDAP")
	case 1:
	default:
		return nil, errors.New("multiple users found in LDAP")
	}

	entry := result.Entries[0]
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, errors.New("invalid credentials")
	}

	user := &LDAPUser{
		DN:       entry.DN,
		Email:    entry.GetAttributeValue("mail"),
		FullName: entry.GetAttributeValue("displayName"),
	}
	if user.FullName == "" {
		user.FullName = entry.GetAttributeValue("cn")
	}
	if user.Email == "" {
		return nil, errors.New("LDAP entry has no mail attribute")
	}
	return user, nil
}
