package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// GitHubBaseURL is the public GitHub web origin.
const GitHubBaseURL = "https://github.com"

var githubUsername = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-(?:[A-Za-z0-9])){0,38}$`)

// GitHubProfile is what the public profile page exposes.
type GitHubProfile struct {
	Username  string   `json:"username"`
	Name      string   `json:"name,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Location  string   `json:"location,omitempty"`
	Company   string   `json:"company,omitempty"`
	Website   string   `json:"website,omitempty"`
	Followers int      `json:"followers"`
	Following int      `json:"following"`
	Repos     int      `json:"repos"`
	Pinned    []string `json:"pinned,omitempty"`
}

// GitHubScraper reads public GitHub profile pages.
type GitHubScraper struct {
	BaseURL string
	Options *Options
}

// NewGitHubScraper returns a scraper for github.com.
func NewGitHubScraper() *GitHubScraper {
	return &GitHubScraper{BaseURL: GitHubBaseURL, Options: DefaultOptions()}
}

// ValidGitHubUsername reports whether name is a syntactically valid GitHub login.
func ValidGitHubUsername(name string) bool {
	return githubUsername.MatchString(name)
}

// Profile fetches and parses the profile page of username.
func (s *GitHubScraper) Profile(ctx context.Context, username string) (*GitHubProfile, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if !ValidGitHubUsername(username) {
		return nil, &Error{URL: username, Message: "invalid GitHub username"}
	}

	result, err := URL(ctx, strings.TrimRight(s.BaseURL, "/")+"/"+username, s.Options)
	if err != nil {
		return nil, err
	}
	profile, err := ParseGitHubProfile(result.HTML)
	if err != nil {
		return nil, &Error{URL: result.URL, Message: "failed to parse profile page", Cause: err}
	}
	if profile.Username == "" {
		profile.Username = username
	}
	return profile, nil
}

// ParseGitHubProfile extracts profile fields from a GitHub profile page.
func ParseGitHubProfile(html string) (*GitHubProfile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	p := &GitHubProfile{
		Username: text(doc, ".vcard-username", ".p-nickname"),
		Name:     text(doc, ".vcard-fullname", ".p-name"),
		Bio:      text(doc, ".user-profile-bio", ".p-note"),
		Location: text(doc, "[itemprop='homeLocation'] .p-label", "[itemprop='homeLocation']"),
		Company:  text(doc, "[itemprop='worksFor'] .p-org", ".p-org"),
		Website:  text(doc, "[itemprop='url'] a", "[data-test-selector='profile-website-url'] a"),
	}
	p.Followers = count(doc, "a[href$='?tab=followers'] .text-bold")
	p.Following = count(doc, "a[href$='?tab=following'] .text-bold")
	p.Repos = count(doc, "a[href$='?tab=repositories'] .Counter")

	doc.Find(".pinned-item-list-item .repo").Each(func(_ int, sel *goquery.Selection) {
		if name := strings.TrimSpace(sel.Text()); name != "" {
			p.Pinned = append(p.Pinned, name)
		}
	})
	return p, nil
}

func text(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if v := strings.Join(strings.Fields(s.Text()), " "); v != "" {
				return v
			}
		}
	}
	return ""
}

// count reads a counter, preferring its exact title attribute over the
// abbreviated text ("1.2k").
func count(doc *goquery.Document, selector string) int {
	s := doc.Find(selector).First()
	if s.Length() == 0 {
		return 0
	}
	if title, ok := s.Attr("title"); ok {
		if n, err := strconv.Atoi(strings.ReplaceAll(title, ",", "")); err == nil {
			return n
		}
	}
	return ParseCount(s.Text())
}

// ParseCount parses GitHub's abbreviated counters: "12", "1,024", "1.2k", "3m".
func ParseCount(s string) int {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if s == "" {
		return 0
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1e3, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1e6, strings.TrimSuffix(s, "m")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f*mult + 0.5)
}
