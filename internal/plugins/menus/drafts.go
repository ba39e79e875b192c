package menus

import (
	"fmt"
	"math"

	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// ParseDrafts reads menu drafts from front matter. Accepted forms:
//
//	menu: main
//	menu: [main, footer]
//	menus:
//	  main:
//	    title: About
//	    pos: 1
//	    icon: user      # kept in Extra
//
// "menus" takes precedence over "menu". Returns nil when neither is present.
func ParseDrafts(meta map[string]any) (map[string]site.MenuDraft, error) {
	raw, ok := meta["menus"]
	if !ok {
		raw, ok = meta["menu"]
	}
	if !ok || raw == nil {
		return nil, nil
	}

	drafts := make(map[string]site.MenuDraft)
	switch v := raw.(type) {
	case string:
		drafts[v] = site.MenuDraft{}
	case []any:
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("menu name must be a string, got %T", item)
			}
			drafts[name] = site.MenuDraft{}
		}
	case map[string]any:
		for name, body := range v {
			d, err := parseDraft(body)
			if err != nil {
				return nil, fmt.Errorf("menu %q: %w", name, err)
			}
			drafts[name] = d
		}
	default:
		return nil, fmt.Errorf("unsupported menus value of type %T", raw)
	}
	return drafts, nil
}

func parseDraft(body any) (site.MenuDraft, error) {
	var d site.MenuDraft
	if body == nil {
		return d, nil
	}
	fields, ok := body.(map[string]any)
	if !ok {
		return d, fmt.Errorf("entry must be a mapping, got %T", body)
	}
	for key, value := range fields {
		switch key {
		case "title":
			d.Title = fmt.Sprint(value)
		case "description":
			d.Description = fmt.Sprint(value)
		case "pos", "weight":
			pos, err := toInt(value)
			if err != nil {
				return d, fmt.Errorf("%s: %w", key, err)
			}
			d.Pos = &pos
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]any)
			}
			d.Extra[key] = value
		}
	}
	return d, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, fmt.Errorf("position %d out of range", n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("position %v is not a whole number", n)
		}
		// float64(math.MaxInt) rounds up to 2^63, which is itself out of range.
		if n < math.MinInt || n >= math.MaxInt {
			return 0, fmt.Errorf("position %v out of range", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("position must be a number, got %T", v)
	}
}
