package sentryapi

import "strings"

// link is one entry of a pagination Link header:
//
//	<https://host/api/0/...&cursor=0:100:0>; rel="next"; results="true"; cursor="0:100:0"
type link struct {
	URL     string
	Results bool
	Cursor  string
}

// parseLinks indexes Link header entries by rel.
func parseLinks(headers []string) map[string]link {
	links := make(map[string]link)
	for _, header := range headers {
		rest := header
		for {
			start := strings.IndexByte(rest, '<')
			if start < 0 {
				break
			}
			end := strings.IndexByte(rest[start:], '>')
			if end < 0 {
				break
			}
			end += start

			l := link{URL: rest[start+1 : end]}
			rest = rest[end+1:]

			params := rest
			if nextStart := strings.IndexByte(rest, '<'); nextStart >= 0 {
				params = rest[:nextStart]
				rest = rest[nextStart:]
			} else {
				rest = ""
			}

			var rel string
			for _, param := range strings.Split(params, ";") {
				param = strings.Trim(strings.TrimSpace(param), ", ")
				key, value, ok := strings.Cut(param, "=")
				if !ok {
					continue
				}
				value = strings.Trim(strings.TrimSpace(value), `"`)
				switch strings.ToLower(strings.TrimSpace(key)) {
				case "rel":
					rel = value
				case "results":
					l.Results = value == "true"
				case "cursor":
					l.Cursor = value
				}
			}
			if rel != "" {
				links[rel] = l
			}
		}
	}
	return links
}
