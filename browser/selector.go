package browser

import (
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Strategy is how a Selector's query is resolved.
type Strategy int

const (
	CSS Strategy = iota
	XPath
)

func (s Strategy) String() string {
	if s == XPath {
		return "xpath"
	}
	return "css"
}

// Selector is one candidate locator for an element. Frame, when set, is a CSS
// selector for the iframe whose document the query runs in; framed selectors
// must use the CSS strategy.
type Selector struct {
	Query string
	By    Strategy
	Frame string
}

func (s Selector) String() string {
	if s.Frame != "" {
		return fmt.Sprintf("%s >> %s(%s)", s.Frame, s.By, s.Query)
	}
	return fmt.Sprintf("%s(%s)", s.By, s.Query)
}

// Element is a located element. It is re-resolved from its selector on every
// action, scoped to the iframe node found during the lookup.
type Element struct {
	Selector Selector
	frame    *cdp.Node
}

func (e *Element) String() string {
	return e.Selector.String()
}

func (e *Element) queryOptions(extra ...chromedp.QueryOption) []chromedp.QueryOption {
	opts := make([]chromedp.QueryOption, 0, len(extra)+2)
	opts = append(opts, e.Selector.by())
	if e.frame != nil {
		opts = append(opts, chromedp.FromNode(e.frame))
	}
	return append(opts, extra...)
}

func (s Selector) by() chromedp.QueryOption {
	if s.By == XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (s Selector) validate() error {
	if s.Query == "" {
		return fmt.Errorf("browser: empty selector query")
	}
	if s.Frame != "" && s.By != CSS {
		return fmt.Errorf("browser: selector %s: iframe-scoped queries must be css", s)
	}
	return nil
}
