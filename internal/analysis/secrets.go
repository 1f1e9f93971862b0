package analysis

import "regexp"

type secretDetector struct {
	re             *regexp.Regexp
	title          string
	recommendation string
}

// Credential detectors, checked in order; the first match wins.
var secretDetectors = []secretDetector{
	{regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`), "Private key material committed", "remove the key from source and rotate it"},
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "AWS access key exposed", "revoke the key and load credentials from the environment or an IAM role"},
	{regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{20,}`), "GitHub token exposed", "revoke the token and inject it from CI secrets"},
	{regexp.MustCompile(`github_pat_[A-Za-z0-9_]{20,}`), "GitHub PAT exposed", "revoke the PAT and inject it from CI secrets"},
	{regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`), "Google API key exposed", "restrict and rotate the key"},
	{regexp.MustCompile(`xox[baprs]-[A-Za-z0-9\-]{10,}`), "Slack token exposed", "revoke the token in Slack admin"},
	{regexp.MustCompile(`sk_(?:live|test)_[0-9A-Za-z]{10,}`), "Stripe secret key exposed", "rotate the key in the Stripe dashboard"},
	{regexp.MustCompile(`sk-[A-Za-z0-9\-_]{20,}`), "OpenAI API key exposed", "revoke the key and read it from the environment"},
	{regexp.MustCompile(`[A-Za-z0-9-_]{8,}\.eyJ[A-Za-z0-9-_]{5,}\.[A-Za-z0-9-_]{10,}`), "JWT token present", "do not commit tokens; issue short-lived ones at runtime"},
	{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-\._~\+\/]{20,}=*`), "Bearer token exposed", "move the token to configuration"},
	{regexp.MustCompile(`://[^\s/:@]+:[^\s/@]+@`), "Credentials embedded in URL", "pass credentials through configuration instead of the URL"},
}

func matchSecret(value string) (secretDetector, bool) {
	for _, d := range secretDetectors {
		if d.re.MatchString(value) {
			return d, true
		}
	}
	return secretDetector{}, false
}
