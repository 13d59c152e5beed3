package migrations

import "embed"

// FS contém os arquivos .sql aplicados pelo goose na inicialização.
//
//go:embed *.sql
var FS embed.FS
