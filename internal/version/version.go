package version

import (
	"fmt"
	"runtime/debug"
)

// Значения подставляются при сборке:
// go build -ldflags "-X github.com/vladislavdragonenkov/bakery/internal/version.version=v1.2.0"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Build описывает сборку сайта.
type Build struct {
	Version string
	Commit  string
	Date    string
}

// Current возвращает данные сборки. Если commit и date не заданы через -ldflags,
// они берутся из VCS-информации, которую go build вшивает в бинарник.
func Current() Build {
	b := Build{Version: version, Commit: commit, Date: date}
	if info, ok := debug.ReadBuildInfo(); ok {
		b = b.withVCS(info.Settings)
	}
	return b
}

func (b Build) withVCS(settings []debug.BuildSetting) Build {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "unknown" && s.Value != "" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "unknown" && s.Value != "" {
				b.Date = s.Value
			}
		}
	}
	return b
}

func (b Build) String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", b.Version, b.Commit, b.Date)
}
