package orchestrator

import "strings"

// channel name prefixes that carry no search signal.
var queryPrefixes = []string{"deal-", "deal_", "sales-", "acct-", "account-"}

// DeriveQuery converts a channel name into a deal search phrase:
// "deal-acme-corp" becomes "acme corp".
func DeriveQuery(channelName string) string {
	name := strings.ToLower(strings.TrimSpace(channelName))

	for _, prefix := range queryPrefixes {
		if strings.HasPrefix(name, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
