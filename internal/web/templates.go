package web

import (
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var funcMap = template.FuncMap{
	"orDash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
	"since": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.Time(t)
	},
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"join":  strings.Join,
}

// ── Base layout ───────────────────────────────────────────────────────────────

const tmplBase = `
{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>evdash</title>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:'JetBrains Mono',monospace,sans-serif;background:#0d1117;color:#c9d1d9;font-size:13px;line-height:1.5}
a{color:#58a6ff;text-decoration:none}
a:hover{text-decoration:underline}
nav{background:#161b22;border-bottom:1px solid #30363d;padding:8px 16px;display:flex;gap:16px;align-items:center;flex-wrap:wrap}
nav .brand{color:#f0f6fc;font-weight:700;font-size:15px;margin-right:8px}
nav .meta{margin-left:auto;font-size:11px;color:#8b949e}
main{padding:16px}
.cards{display:grid;grid-template-columns:repeat(auto-fill,minmax(320px,1fr));gap:12px}
.card{background:#161b22;border:1px solid #30363d;border-radius:6px;padding:12px 16px}
.card h3{font-size:13px;color:#f0f6fc;margin-bottom:4px}
.card .summary{margin:6px 0}
.card .meta{font-size:11px;color:#8b949e}
table{width:100%;border-collapse:collapse;font-size:12px}
th{text-align:left;padding:6px 10px;border-bottom:1px solid #30363d;color:#8b949e;font-weight:600;font-size:11px;text-transform:uppercase;letter-spacing:.05em}
td{padding:5px 10px;border-bottom:1px solid #21262d;vertical-align:top}
tr:hover td{background:#161b22}
.tag{display:inline-block;padding:1px 6px;border-radius:4px;font-size:11px;background:#21262d;color:#8b949e;border:1px solid #30363d}
.dim{color:#8b949e}
.err{color:#f87171}
.banner{background:#f8717122;border:1px solid #f87171;border-radius:6px;padding:8px 12px;margin-bottom:12px;color:#f87171}
.placeholder{padding:24px;text-align:center;color:#8b949e}
details{margin-top:6px}
details summary{cursor:pointer;color:#8b949e;font-size:11px}
dl{display:grid;grid-template-columns:max-content 1fr;gap:2px 12px;margin-top:4px;font-size:11px}
dt{color:#8b949e}
dd{word-break:break-word}
dt.derived,dd.derived{font-style:italic}
.filters{display:flex;gap:8px;flex-wrap:wrap;align-items:center;margin-bottom:12px;background:#161b22;padding:8px 12px;border-radius:6px;border:1px solid #30363d}
.filters label{font-size:11px;color:#8b949e}
.filters select,.filters input{background:#0d1117;border:1px solid #30363d;color:#c9d1d9;border-radius:4px;padding:3px 6px;font-size:12px;font-family:inherit}
.filters button{background:#1f6feb;border:none;color:#fff;padding:4px 12px;border-radius:4px;cursor:pointer;font-size:12px}
.filters .count{margin-left:auto;font-size:11px;color:#8b949e}
</style>
</head>
<body>
<nav>
<span class="brand">evdash</span>
<span class="dim">{{.Source}}</span>
<span class="meta">{{if .Loaded}}loaded {{since .LoadedAt}}{{else}}loading{{end}}</span>
</nav>
<main>
{{template "content" .}}
</main>
</body>
</html>{{end}}
`

// ── Dashboard ────────────────────────────────────────────────────────────────

const tmplPage = `
{{define "details"}}
<details{{if .Open}} open{{end}}>
<summary>Details</summary>
<dl>
{{range .Details}}<dt{{if .Derived}} class="derived"{{end}}>{{.Label}}</dt><dd{{if .Derived}} class="derived"{{end}}>{{if .Link}}<a href="{{.Link}}" target="_blank" rel="noopener noreferrer">{{.Value}}</a>{{else}}{{orDash .Value}}{{end}}</dd>
{{end}}</dl>
</details>
{{end}}

{{define "vod"}}{{if .VOD}}<a href="{{.VOD}}" target="_blank" rel="noopener noreferrer">VOD</a>{{else}}<span class="dim">VOD unavailable</span>{{end}}{{end}}

{{define "content"}}
{{if not .Loaded}}
<p class="placeholder">Loading events from {{.Source}}…</p>
{{else}}
{{with .Failure}}<div class="banner">Could not load events from {{.Source}}: {{.Err}}</div>{{end}}
<form class="filters" method="get" action="/">
<label for="q">Search</label>
<input id="q" type="search" name="q" value="{{.Filter.SearchText}}" placeholder="summary, streamer, location">
<label for="category">Category</label>
<select id="category" name="category">
<option value="all">All categories</option>
{{range .Categories}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
{{end}}</select>
<label for="streamer">Streamer</label>
<select id="streamer" name="streamer">
<option value="all">All streamers</option>
{{range .Streamers}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
{{end}}</select>
<label for="layout">Layout</label>
<select id="layout" name="layout">
<option value="cards"{{if eq .Layout "cards"}} selected{{end}}>Cards</option>
<option value="table"{{if eq .Layout "table"}} selected{{end}}>Table</option>
</select>
<button type="submit">Apply</button>
<a href="/?layout={{.Layout}}">Reset</a>
<span class="count">{{comma .Visible}} of {{comma .Total}} events</span>
</form>

{{if not .Rows}}
<p class="placeholder">No matching events</p>
{{else if eq .Layout "table"}}
<table>
<tr><th>Date</th><th>Category</th><th>Streamer</th><th>Location</th><th>Summary</th><th>VOD</th></tr>
{{range .Rows}}
<tr id="event-{{.Index}}">
<td>{{orDash .Event.Date}}</td>
<td>{{orDash .Event.EventCategory}}</td>
<td>{{orDash .Event.PrimaryStreamer}}</td>
<td>{{orDash .Event.LocationCombined}}</td>
<td>{{orDash .Event.Summary}}</td>
<td>{{template "vod" .}}</td>
</tr>
<tr><td colspan="6">{{template "details" .}}</td></tr>
{{end}}
</table>
{{else}}
<div class="cards">
{{range .Rows}}
<article class="card" id="event-{{.Index}}">
<h3>{{orDash .Event.Date}} <span class="tag">{{orDash .Event.EventCategory}}</span> {{orDash .Event.PrimaryStreamer}}</h3>
<p class="summary">{{if .Event.Summary}}{{.Event.Summary}}{{else}}<span class="dim">(no summary)</span>{{end}}</p>
<p class="meta">{{orDash .Event.LocationCombined}}{{with .Event.InvolvedStreamers}} · with {{join . ", "}}{{end}} · {{template "vod" .}}</p>
{{template "details" .}}
</article>
{{end}}
</div>
{{end}}
{{end}}
{{end}}
`
