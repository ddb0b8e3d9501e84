package fraud

import "regexp"

// botSignatures matches known crawler, headless-browser and HTTP-library
// user agents. The list follows the same families the isbot ruleset flags.
var botSignatures = regexp.MustCompile(`(?i)(bot|crawl|spider|slurp|scrape|fetch|monitor|headless|phantomjs|selenium|puppeteer|playwright|electron|curl/|wget/|python-requests|python-urllib|aiohttp|httpx|go-http-client|okhttp|java/|libwww|apache-httpclient|node-fetch|axios/|facebookexternalhit|whatsapp|telegram|bingpreview|pingdom|uptimerobot|lighthouse|semrush|ahrefs|mj12bot|dotbot|petalbot|bytespider)`)

// ClassifyBot reports whether the user agent matches a known bot signature.
// An empty or unrecognized user agent classifies as not-a-bot.
func ClassifyBot(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	return botSignatures.MatchString(userAgent)
}
