package normalizer

import (
	"regexp"
	"strings"
)

// adPolicy is the ordered removal policy applied to page content before
// comparison. Each pattern strips one category of ad or tracking markup that
// rotates between fetches without the page meaningfully changing. Order
// matters: container subtrees go before attribute-level scrubbing.
var adPolicy = []*regexp.Regexp{
	// Ad click tracking hrefs (e.g. /api/ads/click?ad=...)
	regexp.MustCompile(`(?i)href="[^"]*/api/ads/click[^"]*"`),
	regexp.MustCompile(`(?i)href='[^']*/api/ads/click[^']*'`),

	// Ad containers by class or id, with their subtree
	regexp.MustCompile(`(?is)<[^>]*class="[^"]*ads?[^"]*"[^>]*>.*?</[^>]+>`),
	regexp.MustCompile(`(?is)<[^>]*id="[^"]*ads?[^"]*"[^>]*>.*?</[^>]+>`),

	// Ad-serving script tags
	regexp.MustCompile(`(?is)<script[^>]*>.*?(?:ads?|advertisement|adserving).*?</script>`),

	// AdSense markers
	regexp.MustCompile(`(?is)<[^>]*data-ad-[^>]*>.*?</[^>]+>`),
	regexp.MustCompile(`(?is)<ins[^>]*class="[^"]*adsbygoogle[^"]*"[^>]*>.*?</ins>`),

	// Ad network iframes
	regexp.MustCompile(`(?is)<iframe[^>]*(?:ads?|advertisement|doubleclick|googleadservices)[^>]*>.*?</iframe>`),

	// Stray ad data attributes left on otherwise ordinary tags
	regexp.MustCompile(`(?i)\s+data-ad-[^=]*="[^"]*"`),
	regexp.MustCompile(`(?i)\s+data-ads-[^=]*="[^"]*"`),

	// Remaining ad API hrefs
	regexp.MustCompile(`(?i)href="[^"]*/api/ads[^"]*"`),
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeContent strips ad and tracking noise from raw page content and
// collapses whitespace, so that ad rotation and formatting churn do not
// register as changes. Pure and deterministic; applying it twice yields the
// same result as applying it once. Content that never mentions ads passes
// through with only whitespace collapsing.
func NormalizeContent(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := raw
	for _, pattern := range adPolicy {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}

	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
