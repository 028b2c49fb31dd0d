package rendering

import (
	"html/template"
	"strings"
)

// Sections shared by every layout. Layouts differ only in container
// structure and styling.
const sharedTemplates = `
{{define "contact"}}<span class="contact__item contact__email">{{.Email}}</span><span class="contact__item contact__phone">{{.Phone}}</span><span class="contact__item contact__location">{{.Location}}</span>{{end}}

{{define "identity"}}<h1 class="identity__name">{{.Name}}</h1><p class="identity__title">{{.Title}}</p>{{end}}

{{define "summary"}}<p class="summary">{{.Summary}}</p>{{end}}

{{define "entry-body"}}{{if .Summary}}<p class="entry__summary">{{.Summary}}</p>{{else if .Bullets}}<ul class="entry__bullets">{{range .Bullets}}<li>{{.}}</li>{{end}}</ul>{{else}}<p class="entry__placeholder">{{.Fallback}}</p>{{end}}{{end}}

{{define "entry"}}<article class="entry"><header class="entry__head"><h3 class="entry__position">{{.Position}}</h3><span class="entry__dates">{{.Dates}}</span></header><p class="entry__company">{{.Company}}</p>{{template "entry-body" .}}</article>{{end}}

{{define "experience"}}{{range .Experience}}{{template "entry" .}}{{else}}<p class="placeholder">{{.EmptyExperience}}</p>{{end}}{{end}}

{{define "education"}}{{range .Education}}<div class="education"><h3 class="education__degree">{{.Degree}} {{.Field}}</h3><p class="education__institution">{{.Institution}}</p><p class="education__year">{{.Year}}</p>{{with .Score}}<p class="education__score">Score: {{.}}</p>{{end}}</div>{{else}}<p class="placeholder">{{.EmptyEducation}}</p>{{end}}{{end}}

{{define "skills"}}{{range .Skills}}<span class="skill">{{.}}</span>{{else}}<p class="placeholder">{{.EmptySkills}}</p>{{end}}{{end}}

{{define "skills-inline"}}{{if .Skills}}<p class="skills-inline">{{join .Skills " • "}}</p>{{else}}<p class="placeholder">{{.EmptySkills}}</p>{{end}}{{end}}
`

// Professional: single column with a header band.
const professionalTemplate = `{{define "Professional"}}<div class="resume resume--{{.Layout}}">
<style>
.resume--professional{max-width:56rem;margin:0 auto;padding:2rem;background:#fff;font-family:Helvetica,Arial,sans-serif;color:#1f2937}
.resume--professional .band{text-align:center;border-bottom:4px solid #7c3aed;padding-bottom:1.5rem;margin-bottom:2rem}
.resume--professional .identity__title,.resume--professional h2,.resume--professional .entry__company{color:#7c3aed}
.resume--professional .contact__item{margin:0 .75rem;font-size:.875rem}
.resume--professional .entry{border-left:4px solid #7c3aed;background:#f9fafb;padding:1rem;margin-bottom:1.5rem}
.resume--professional .entry__head{display:flex;justify-content:space-between}
.resume--professional .columns{display:grid;grid-template-columns:1fr 1fr;gap:2rem}
.resume--professional .skill{display:inline-block;padding:.5rem 1rem;margin:.25rem;border-radius:9999px;background:#ede9fe}
</style>
<header class="band">{{template "identity" .Identity}}<div class="contact">{{template "contact" .Identity}}</div></header>
<section><h2>PROFESSIONAL SUMMARY</h2>{{template "summary" .}}</section>
<section><h2>EXPERIENCE</h2>{{template "experience" .}}</section>
<div class="columns">
<section><h2>EDUCATION</h2>{{template "education" .}}</section>
<section><h2>SKILLS</h2><div class="skills">{{template "skills" .}}</div></section>
</div>
</div>{{end}}`

// ModernSidebar: colored sidebar with identity, skills and education; main
// pane with summary and experience.
const modernSidebarTemplate = `{{define "ModernSidebar"}}<div class="resume resume--{{.Layout}}">
<style>
.resume--modernsidebar{display:flex;max-width:64rem;margin:0 auto;background:#fff;font-family:Helvetica,Arial,sans-serif}
.resume--modernsidebar .sidebar{width:33%;background:#1e3a8a;color:#fff;padding:2rem}
.resume--modernsidebar .sidebar .contact__item{display:block;margin-bottom:.5rem;font-size:.875rem}
.resume--modernsidebar .sidebar .skill{display:block;background:#1d4ed8;padding:.25rem .75rem;margin-bottom:.5rem;border-radius:.25rem}
.resume--modernsidebar .sidebar .placeholder{color:#dbeafe}
.resume--modernsidebar .main{flex:1;padding:2rem;color:#1f2937}
.resume--modernsidebar .main h2{color:#1e3a8a;border-bottom:2px solid #1e3a8a}
.resume--modernsidebar .entry{margin-bottom:1.5rem}
</style>
<aside class="sidebar">
{{template "identity" .Identity}}
<section><h2>CONTACT</h2><div class="contact">{{template "contact" .Identity}}</div></section>
<section><h2>SKILLS</h2><div class="skills">{{template "skills" .}}</div></section>
<section><h2>EDUCATION</h2>{{template "education" .}}</section>
</aside>
<main class="main">
<section><h2>PROFILE</h2>{{template "summary" .}}</section>
<section><h2>EXPERIENCE</h2>{{template "experience" .}}</section>
</main>
</div>{{end}}`

// Creative: banner header and a two-column card grid.
const creativeTemplate = `{{define "Creative"}}<div class="resume resume--{{.Layout}}">
<style>
.resume--creative{max-width:64rem;margin:0 auto;background:#fdf4ff;font-family:Georgia,serif;color:#1f2937}
.resume--creative .banner{background:linear-gradient(90deg,#db2777,#7c3aed);color:#fff;padding:2.5rem;border-radius:0 0 2rem 2rem}
.resume--creative .banner .contact__item{margin-right:1rem;opacity:.9}
.resume--creative .grid{display:grid;grid-template-columns:1fr 1fr;gap:1.5rem;padding:2rem}
.resume--creative .card{background:#fff;border-radius:1rem;padding:1.5rem;box-shadow:0 4px 12px rgba(0,0,0,.08)}
.resume--creative .card--wide{grid-column:span 2}
.resume--creative h2{color:#db2777}
.resume--creative .skill{display:inline-block;margin:.25rem;padding:.25rem .75rem;border-radius:9999px;background:#fce7f3}
</style>
<header class="banner">{{template "identity" .Identity}}<div class="contact">{{template "contact" .Identity}}</div></header>
<div class="grid">
<section class="card card--wide"><h2>About Me</h2>{{template "summary" .}}</section>
<section class="card card--wide"><h2>Experience</h2>{{template "experience" .}}</section>
<section class="card"><h2>Education</h2>{{template "education" .}}</section>
<section class="card"><h2>Skills</h2><div class="skills">{{template "skills" .}}</div></section>
</div>
</div>{{end}}`

// Minimalist: single column, typographic, no color blocks.
const minimalistTemplate = `{{define "Minimalist"}}<div class="resume resume--{{.Layout}}">
<style>
.resume--minimalist{max-width:48rem;margin:0 auto;padding:3rem;font-family:Garamond,"Times New Roman",serif;color:#111}
.resume--minimalist .identity__name{font-weight:300;letter-spacing:.1em;text-transform:uppercase}
.resume--minimalist .contact__item+.contact__item::before{content:" / "}
.resume--minimalist h2{font-size:.75rem;letter-spacing:.2em;text-transform:uppercase;font-weight:400;margin-top:2rem}
.resume--minimalist .entry{margin-bottom:1.25rem}
.resume--minimalist .entry__head{display:flex;justify-content:space-between}
</style>
<header>{{template "identity" .Identity}}<div class="contact">{{template "contact" .Identity}}</div></header>
<section><h2>Summary</h2>{{template "summary" .}}</section>
<section><h2>Experience</h2>{{template "experience" .}}</section>
<section><h2>Education</h2>{{template "education" .}}</section>
<section><h2>Skills</h2>{{template "skills-inline" .}}</section>
</div>{{end}}`

var layouts = template.Must(template.New("layouts").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(sharedTemplates + professionalTemplate + modernSidebarTemplate + creativeTemplate + minimalistTemplate))
