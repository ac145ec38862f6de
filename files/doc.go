// Package files holds the filesystem primitives of provisioning: single line
// edits of config files, symlinks into $HOME and temporary ownership of root
// owned files.
//
// Every function is idempotent: applied twice with the same inputs it leaves the
// filesystem as a single application would, and reports whether it changed anything.
//
// example usage
//
//	// enable magic sysrq keys; /etc/sysctl.conf is root owned, so the write
//	// goes through temporary ownership
//	changed, err := files.LineInFile(ctx, dotfiles.Local{}, "/etc/sysctl.conf", "kernel.sysrq=240")
//
//	// mirror the repository's files/home tree into $HOME
//	linked, err := files.LinkTree("files/home", home)
package files
