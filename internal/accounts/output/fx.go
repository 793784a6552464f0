package output

import "go.uber.org/fx"

var Module = fx.Module("accounts.output",
	fx.Provide(NewGenerator),
)
