// Package charts draws dashboard charts with go-echarts. It produces
// embeddable HTML snippets for the page and bare option JSON for
// websocket clients.
package charts
