// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mockdevice

import (
	"html/template"
	"net/http"
)

var configPage = template.Must(template.New("mock").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Mock device</title></head>
<body>
<h1>Mock device configuration</h1>
<table>
<tr><td>failReset</td><td>{{.FailReset}}</td></tr>
<tr><td>failTimer</td><td>{{.FailTimer}}</td></tr>
<tr><td>timer</td><td>{{.TimerSeed}}</td></tr>
<tr><td>delay</td><td>{{.DelayMs}} ms</td></tr>
</table>
<h2>Quick links</h2>
<ul>
<li><a href="?failReset=true">Fail reset</a> / <a href="?failReset=false">Succeed reset</a></li>
<li><a href="?failTimer=true">Fail timer</a> / <a href="?failTimer=false">Succeed timer</a></li>
<li><a href="?timer=10">Timer 10 s</a> / <a href="?timer=300">Timer 300 s</a> / <a href="?timer=0">Timer expired</a></li>
<li><a href="?delay=0">No delay</a> / <a href="?delay=2000">Delay 2 s</a></li>
<li><a href="?failReset=false&failTimer=false&timer=300&delay=0">Defaults</a></li>
</ul>
</body>
</html>
`))

func renderConfigPage(w http.ResponseWriter, cfg Config) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := configPage.Execute(w, cfg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
