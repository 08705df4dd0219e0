package assets

import "embed"

//go:embed all:migrations
var MigrationsFS embed.FS

//go:embed templates/*.html
var TemplatesFS embed.FS
