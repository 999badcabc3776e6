package starred

// TargetURLs maps items to star URLs of the form <base>/<full_name>,
// keeping input order. Items without a textual full_name are dropped.
func TargetURLs(items []Item, base string) []string {
	urls := make([]string, 0, len(items))
	for _, item := range items {
		name, ok := item.FullName()
		if !ok {
			continue
		}
		urls = append(urls, base+"/"+name)
	}
	return urls
}
