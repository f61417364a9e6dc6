// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	FlatpakNotFoundId Id = iota + 1
	FlatpakBuilderNotFoundId
	ManifestNotFoundId
	ManifestInvalidId
	DependencyMissingId
	ToolFailedId
	ConfigLoadFailedId
	PermissionDeniedId
)

type (
	// Id identifies a known issue.
	Id int

	// MarkdownMsg is the help text of an issue.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a rendered help page for a failure users commonly run into.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id { return i.id }

func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

func (i *Issue) ExtLinks() []HttpLink { return slices.Clone(i.extLinks) }

// Render renders the issue as terminal markdown with the given glamour style
// ("dark", "light", "notty", "auto" or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	flatpakNotFoundIssue = &Issue{
		id: FlatpakNotFoundId,
		mdMsg: `
# flatpak is not installed!

The ` + "`flatpak`" + ` command could not be found on your PATH.

## Things you can try:
- Install flatpak with your distribution's package manager:
~~~
$ sudo apt install flatpak        # Debian, Ubuntu
$ sudo dnf install flatpak        # Fedora
~~~

- Point flatpak-bundler at a different binary in your config file:
~~~cue
flatpak_binary: "/usr/local/bin/flatpak"
~~~`,
		docLinks: []HttpLink{"https://flatpak.org/setup/"},
	}

	flatpakBuilderNotFoundIssue = &Issue{
		id: FlatpakBuilderNotFoundId,
		mdMsg: `
# flatpak-builder is not installed!

The ` + "`flatpak-builder`" + ` builder mode needs the flatpak-builder command.

## Things you can try:
- Install flatpak-builder:
~~~
$ sudo apt install flatpak-builder
~~~

- Or use the default builder mode, which only needs flatpak:
~~~
$ flatpak-bundler bundle --builder-mode build-init ...
~~~`,
		docLinks: []HttpLink{"https://docs.flatpak.org/en/latest/flatpak-builder.html"},
	}

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# Manifest not found!

The manifest passed with ` + "`--manifest`" + ` does not exist.

## Things you can try:
- Check the path for typos
- Manifests may be written in JSON, CUE, YAML or TOML:
~~~yaml
id: org.world.Hello
runtime-version: "23.08"
command: hello
files:
  - [hello, /bin/hello]
~~~`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# Invalid manifest!

The manifest could not be decoded or is missing required fields.

## Common issues:
- No ` + "`id`" + ` (a reverse-DNS application id such as org.world.Hello)
- No ` + "`files`" + ` list (use an empty list when modules install everything)
- A files or symlinks entry that is not a [source, destination] pair

## Things you can try:
- Check the error message above for the field and line
- Run with ` + "`--verbose`" + ` for the full error chain`,
		docLinks: []HttpLink{"https://docs.flatpak.org/en/latest/manifests.html"},
	}

	dependencyMissingIssue = &Issue{
		id: DependencyMissingId,
		mdMsg: `
# Runtime, SDK or base app is not installed!

Auto-install was requested, but there is no reference descriptor to install from.

## Things you can try:
- Add the matching ` + "`runtime-flatpakref`" + `, ` + "`sdk-flatpakref`" + ` or ` + "`base-flatpakref`" + ` to the manifest:
~~~yaml
runtime-flatpakref: https://dl.flathub.org/repo/appstream/org.freedesktop.Platform.flatpakref
~~~

- Or install it yourself:
~~~
$ flatpak install --user flathub org.freedesktop.Platform//23.08
~~~`,
		extLinks: []HttpLink{"https://flathub.org/"},
	}

	toolFailedIssue = &Issue{
		id: ToolFailedId,
		mdMsg: `
# A flatpak command failed!

flatpak exited with an error. Its output is shown above.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see every command and its full output
- Re-run with ` + "`--dry-run`" + ` to print the commands without executing them
- Check that the runtime version exists for your architecture:
~~~
$ flatpak remote-info flathub runtime/org.freedesktop.Platform/x86_64/23.08
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the CUE syntax of your config file
- Print the effective configuration:
~~~
$ flatpak-bundler config show
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

## Common causes:
- The working, build or repository directory is not writable
- Updating a system-wide runtime without administrator rights

## Things you can try:
- Choose directories you own with ` + "`--working-dir`" + `
- Install runtimes per-user:
~~~
$ flatpak install --user flathub org.freedesktop.Platform
~~~`,
	}

	issues = map[Id]*Issue{
		flatpakNotFoundIssue.Id():        flatpakNotFoundIssue,
		flatpakBuilderNotFoundIssue.Id(): flatpakBuilderNotFoundIssue,
		manifestNotFoundIssue.Id():       manifestNotFoundIssue,
		manifestInvalidIssue.Id():        manifestInvalidIssue,
		dependencyMissingIssue.Id():      dependencyMissingIssue,
		toolFailedIssue.Id():             toolFailedIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		permissionDeniedIssue.Id():       permissionDeniedIssue,
	}
)

// Values returns every known issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the issue with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
