package winget

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"wingetbridge/internal/executor"
	"wingetbridge/pkg/manager"
)

// resolveID looks up the full Id of a package whose Id was elided. It runs a
// name search (or an installed-list query) and takes the first data row's
// token at the Id column. It returns "" when nothing usable is found.
func (w *Winget) resolveID(ctx context.Context, pkg manager.Package, installed bool) (string, error) {
	name := strings.TrimSpace(strings.ReplaceAll(pkg.Name, manager.ElisionMarker, ""))
	args := []string{"search", "--name", name, flagAcceptSource}
	if installed {
		args = []string{"list", "--query", name, flagAcceptSource}
	}

	stream, err := w.Runner().Start(ctx, executor.Command{Path: w.Binary(), Args: args, ReadOnly: true})
	if err != nil {
		return "", err
	}

	var (
		found    string
		idOffset = -1
	)
	for line := range stream.Lines() {
		if found != "" || !line.Newline {
			continue
		}
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		if idOffset < 0 {
			if IsHeader(line.Text) {
				if cols, ok := LocateColumns(line.Text); ok {
					idOffset = cols.ID
				}
			}
			continue
		}
		if strings.Contains(text, "---") {
			continue
		}
		runes := []rune(strings.TrimRight(line.Text, " "))
		if idOffset >= len(runes) {
			continue
		}
		if f := strings.Fields(string(runes[idOffset:])); len(f) > 0 {
			found = f[0]
		}
	}
	if _, err := stream.Wait(); err != nil {
		return "", err
	}

	if strings.Contains(found, manager.ElisionMarker) {
		found = ""
	}
	w.log.WithFields(logrus.Fields{
		"package":  pkg.Name,
		"elided":   pkg.ID,
		"resolved": found,
	}).Debug("resolved elided id")
	return found, nil
}

// prepareElided returns the command for pkg after resolving its elided Id.
// When no Id is found the package is addressed by name, unless the name is
// elided too.
func (w *Winget) prepareElided(ctx context.Context, intent manager.Intent, pkg manager.Package, opts manager.InstallationOptions, cmd executor.Command) (executor.Command, error) {
	id, err := w.resolveID(ctx, pkg, intent == manager.IntentUninstall)
	if err != nil {
		return executor.Command{}, err
	}
	if id != "" {
		pkg.ID = id
		cmd.Args = operationArgs(intent, pkg, opts)
		return cmd, nil
	}

	if pkg.Name == "" || strings.Contains(pkg.Name, manager.ElisionMarker) {
		return executor.Command{}, manager.ErrNotIdentified
	}
	w.log.WithField("package", pkg.Name).Warn("elided id not resolved, addressing package by name")
	return cmd, nil
}
