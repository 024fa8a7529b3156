package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valisehq/valise/internal/core"
)

func TestCurl(t *testing.T) {
	t.Run("GET omits the method flag", func(t *testing.T) {
		ep := core.NewEndpoint("list", "GET", "https://api.example.com/users")
		out := Curl(ep)
		assert.NotContains(t, out, "-X")
		assert.Contains(t, out, "https://api.example.com/users")
	})

	t.Run("non-GET carries the method", func(t *testing.T) {
		ep := core.NewEndpoint("create", "POST", "https://api.example.com/users")
		assert.Contains(t, Curl(ep), "-X POST")
	})

	t.Run("only active headers are included", func(t *testing.T) {
		ep := core.NewEndpoint("list", "GET", "https://api.example.com/users")
		ep.AddHeader(core.KeyValueItem{Name: "Accept", Value: "application/json", Active: true})
		ep.AddHeader(core.KeyValueItem{Name: "X-Debug", Value: "1", Active: false})

		out := Curl(ep)
		assert.Contains(t, out, "Accept: application/json")
		assert.NotContains(t, out, "X-Debug")
	})

	t.Run("body uses data-raw", func(t *testing.T) {
		ep := core.NewEndpoint("create", "POST", "https://api.example.com/users")
		ep.SetBody(`{"name":"mew"}`, "json")
		assert.Contains(t, Curl(ep), `--data-raw '{"name":"mew"}'`)
	})

	t.Run("values with spaces are quoted", func(t *testing.T) {
		ep := core.NewEndpoint("list", "GET", "https://api.example.com/users")
		ep.AddHeader(core.KeyValueItem{Name: "Authorization", Value: "Bearer abc def", Active: true})
		assert.Contains(t, Curl(ep), "'Authorization: Bearer abc def'")
	})

	t.Run("single quotes are escaped", func(t *testing.T) {
		ep := core.NewEndpoint("create", "POST", "https://api.example.com/say")
		ep.SetBody("it's fine", "text")
		assert.Contains(t, Curl(ep), `'it'"'"'s fine'`)
	})
}
