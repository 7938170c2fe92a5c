// Package httpapi serves the annotation tools over HTTP with gin.
//
// Each MCP tool is reachable as POST /api/v1/tools/:name with the tool
// arguments as the JSON body. Responses use a {success, message, data, error}
// envelope. Change notifications are not pushed over HTTP; clients poll the
// edit_status tool instead.
package httpapi
