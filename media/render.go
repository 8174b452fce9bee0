package media

import (
	"bytes"
	"html/template"
)

var (
	embedTmpl = template.Must(template.New("embed").Parse(
		`<div class="video-container"><iframe src="{{.Src}}" title="{{.Title}}" frameborder="0" ` +
			`allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" ` +
			`allowfullscreen loading="lazy"></iframe></div>`))

	linkTmpl = template.Must(template.New("link").Parse(
		`<div class="video-link{{if .Diagnostic}} video-link-invalid{{end}}">` +
			`{{if .Diagnostic}}<p>{{.Diagnostic}}</p>{{end}}` +
			`<a href="{{.URL}}" target="_blank" rel="noopener noreferrer">{{.URL}}</a></div>`))
)

// Render produces the HTML fragment for a resolved link. Empty links render
// to nothing.
func Render(l Link) (template.HTML, error) {
	if l.Empty() {
		return "", nil
	}

	var buf bytes.Buffer
	var err error
	switch l.Kind {
	case KindYouTube:
		err = embedTmpl.Execute(&buf, struct{ Src, Title string }{l.EmbedURL(), "YouTube video player"})
	case KindVimeo:
		err = embedTmpl.Execute(&buf, struct{ Src, Title string }{l.EmbedURL(), "Vimeo video player"})
	default:
		err = linkTmpl.Execute(&buf, l)
	}
	if err != nil {
		return "", err
	}

	return template.HTML(buf.String()), nil
}
