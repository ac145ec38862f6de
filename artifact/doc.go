// Package artifact fetches files published over HTTP: plain downloads, .deb
// packages and files packed in GitHub release archives.
//
// Every operation checks the local state first, so re-running it on a provisioned
// machine is cheap: a [Downloader] skips files of the announced size, a
// [ReleaseInstaller] doesn't even query GitHub when the target is present.
//
// example usage
//
//	releases := artifact.NewReleaseInstaller()
//
//	// https://github.com/foriequal0/git-trim
//	installed, err := releases.Install(ctx, artifact.Release{
//		Repo:         "foriequal0/git-trim",
//		AssetPattern: ".*linux.*tgz$", // matched against the start of the download url
//		Destination:  "~/.local/bin",
//		Target:       "git-trim", // glob for file names inside the archive
//	})
//	if err != nil {
//		return fmt.Errorf("failed to provision git-trim: %w", err)
//	}
//
// Asset patterns and targets may refer to the host platform, e.g.
// `.*{{.GOOS}}-{{.Arch}}\.tar\.gz$`, see [Platform].
package artifact
