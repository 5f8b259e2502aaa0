// Package paths resolves filesystem locations used by sbackup.
//
// Config discovery follows the XDG Base Directory Specification through
// github.com/adrg/xdg: a config file in the working directory wins, then
// $XDG_CONFIG_HOME/sbackup and the system config directories are searched.
//
//	path, found := paths.FindConfig()
//
// Home-relative paths such as "~/backups" are expanded with [Expand], and
// output directories are created with [EnsureDir].
package paths
