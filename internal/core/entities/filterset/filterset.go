package filterset

import (
	"time"

	"github.com/gosimple/slug"

	"github.com/sergeii/mcscan/internal/core/entities/status"
)

type ServerFilterSet struct {
	minPlayers  int
	hasPlayers  bool
	versionSlug string
	probedAfter time.Time
}

func NewServerFilterSet() ServerFilterSet {
	return ServerFilterSet{}
}

func (fs ServerFilterSet) MinPlayers(n int) ServerFilterSet {
	fs.minPlayers = n
	fs.hasPlayers = true
	return fs
}

// Version matches servers by the slug of their version name,
// so that "Paper 1.20.4" and "paper-1-20-4" are equal
func (fs ServerFilterSet) Version(version string) ServerFilterSet {
	fs.versionSlug = slug.Make(version)
	return fs
}

func (fs ServerFilterSet) ProbedAfter(after time.Time) ServerFilterSet {
	fs.probedAfter = after
	return fs
}

func (fs ServerFilterSet) GetMinPlayers() (int, bool) {
	return fs.minPlayers, fs.hasPlayers
}

func (fs ServerFilterSet) GetVersionSlug() (string, bool) {
	return fs.versionSlug, fs.versionSlug != ""
}

func (fs ServerFilterSet) GetProbedAfter() (time.Time, bool) {
	if fs.probedAfter.IsZero() {
		return fs.probedAfter, false
	}
	return fs.probedAfter, true
}

// Match reports whether the server passes every filter in the set
func (fs ServerFilterSet) Match(svr status.ServerStatus) bool {
	if minPlayers, ok := fs.GetMinPlayers(); ok && svr.OnlinePlayers < minPlayers {
		return false
	}
	if versionSlug, ok := fs.GetVersionSlug(); ok && status.VersionSlug(svr.VersionName) != versionSlug {
		return false
	}
	if probedAfter, ok := fs.GetProbedAfter(); ok && svr.ProbedAt.Before(probedAfter) {
		return false
	}
	return true
}
