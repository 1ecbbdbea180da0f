package openapi

import _ "embed"

// Spec 表示層APIのOpenAPI定義
//
//go:embed openapi.yaml
var Spec []byte
