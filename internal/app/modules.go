package app

import (
	"io"

	"github.com/vk/walkgrid/internal/handlers"
	"github.com/vk/walkgrid/modules/env_vars"
	"github.com/vk/walkgrid/modules/http_request"
	"github.com/vk/walkgrid/modules/print"
)

// coreModules is the definitive list of native bodies compiled into the
// walkgrid binary.
func coreModules(outW io.Writer) []handlers.Module {
	return []handlers.Module{
		&env_vars.Module{},
		&http_request.Module{},
		&print.Module{Out: outW},
	}
}
