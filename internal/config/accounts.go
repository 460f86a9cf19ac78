package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Account is one hosted account and the projects linked from this machine.
type Account struct {
	AccountName         string    `json:"account_name"`
	FullName            string    `json:"full_name,omitempty"`
	PersonalAccessToken string    `json:"personal_access_token,omitempty"`
	Projects            []Project `json:"projects,omitempty"`
}

type Project struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Repositories []Repository `json:"repositories,omitempty"`
}

// Repository links a remote repository to a local .git directory.
type Repository struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Directory string `json:"directory"`
}

// Matches reports whether the registration is for gitDir.
func (r Repository) Matches(gitDir string) bool {
	return samePath(r.Directory, gitDir)
}

// samePath compares directories the way they were registered: cleaned and
// case-insensitive.
func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}

// Account returns the account named host.
func (c *Config) Account(host string) (*Account, bool) {
	for i := range c.Accounts {
		if strings.EqualFold(c.Accounts[i].AccountName, host) {
			return &c.Accounts[i], true
		}
	}

	return nil, false
}

// ActiveAccount returns the account that has gitDir linked.
func (c *Config) ActiveAccount(gitDir string) (*Account, bool) {
	for i := range c.Accounts {
		if _, ok := c.Accounts[i].CurrentProject(gitDir); ok {
			return &c.Accounts[i], true
		}
	}

	return nil, false
}

// CurrentProject returns the project that has gitDir linked.
func (a *Account) CurrentProject(gitDir string) (*Project, bool) {
	for i := range a.Projects {
		if _, ok := a.Projects[i].RepositoryID(gitDir); ok {
			return &a.Projects[i], true
		}
	}

	return nil, false
}

// RepositoryID returns the id of the repository linked to gitDir.
func (p *Project) RepositoryID(gitDir string) (string, bool) {
	for _, repo := range p.Repositories {
		if repo.Matches(gitDir) {
			return repo.ID, true
		}
	}

	return "", false
}

// Credentials returns the token and full name to use for host. Values from
// the environment win over stored ones. ok is false if no token is known.
func (c *Config) Credentials(host string) (token, fullName string, ok bool) {
	if acct, found := c.Account(host); found {
		token, fullName = acct.PersonalAccessToken, acct.FullName
	}

	if c.Token != "" {
		token = c.Token
	}

	if c.FullName != "" {
		fullName = c.FullName
	}

	return token, fullName, token != ""
}

// SetAccountInfo records credentials for host. Existing values are never
// overwritten; only empty fields of a known account are filled in. It
// reports whether anything changed.
func (c *Config) SetAccountInfo(host, token, fullName string) (bool, error) {
	if strings.TrimSpace(host) == "" {
		return false, ErrAccountFieldEmpty
	}

	acct, ok := c.Account(host)
	if !ok {
		c.Accounts = append(c.Accounts, Account{
			AccountName:         host,
			PersonalAccessToken: token,
			FullName:            fullName,
		})

		return true, nil
	}

	changed := false

	if acct.PersonalAccessToken == "" && token != "" {
		acct.PersonalAccessToken = token
		changed = true
	}

	if acct.FullName == "" && fullName != "" {
		acct.FullName = fullName
		changed = true
	}

	return changed, nil
}

// LinkRepository registers repo under the project of account host, adding
// the project if needed. Linking a directory that is already registered in
// that project replaces the old registration.
func (c *Config) LinkRepository(host, projectID, projectName string, repo Repository) error {
	acct, ok := c.Account(host)
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, host)
	}

	for i := range acct.Projects {
		p := &acct.Projects[i]
		if !strings.EqualFold(p.Name, projectName) {
			continue
		}

		for j := range p.Repositories {
			if p.Repositories[j].Matches(repo.Directory) {
				p.Repositories[j] = repo

				return nil
			}
		}

		p.Repositories = append(p.Repositories, repo)

		return nil
	}

	acct.Projects = append(acct.Projects, Project{
		ID:           projectID,
		Name:         projectName,
		Repositories: []Repository{repo},
	})

	return nil
}
