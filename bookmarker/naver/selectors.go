package naver

import "naver-map-bookmarker/browser"

// Ordered fallbacks per stage; the first candidate that appears wins. Naver
// Map renders search results in #searchIframe and place details in
// #entryIframe, so each chain ends with a frame-scoped candidate.
var (
	searchInputSelectors = []browser.Selector{
		{Query: "input.input_search"},
		{Query: "input.search_input"},
		{Query: "//input[contains(@class, 'search')]", By: browser.XPath},
	}

	firstResultSelectors = []browser.Selector{
		{Query: "li.search_item, li.item_search"},
		{Query: "//li[contains(@class, 'search') or contains(@class, 'item')][1]", By: browser.XPath},
		{Query: "#_pcmap_list_scroll_container li, ul > li", Frame: "#searchIframe"},
	}

	bookmarkSelectors = []browser.Selector{
		{Query: "button.btn_save, button.btn_bookmark"},
		{Query: "//button[contains(@class, 'save') or contains(@class, 'bookmark') or contains(@class, 'favorite')]", By: browser.XPath},
		{Query: "button[class*='save'], a[class*='save'], button[class*='bookmark']", Frame: "#entryIframe"},
	}
)
