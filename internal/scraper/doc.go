// Package scraper downloads the monthly deaths spreadsheets from the ONS
// dataset page.
//
// The data page is fetched either with a plain HTTP client or, for pages that
// need a browser, with headless Chrome through chromedp. Every link to an
// .xls or .xlsx file under the dataset's file stem is turned into a FileLink
// carrying its year. The Downloader saves each link from the configured
// minimum year onwards as {year}.{ext} in the downloads directory, skipping
// files that already exist and pausing between requests.
package scraper
