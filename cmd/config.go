package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/subctl/internal/form"
	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit creates the client config and an empty form from templates. Existing files are kept.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file exists, keeping it", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		if url := cmd.String("server"); url != "" {
			if err := setServerURL(configPath, url); err != nil {
				return err
			}
		}
		r.writePlain("✓ Created %s\n", configPath)
	}

	formPath := r.formPath(cmd)
	if _, err := os.Stat(formPath); err == nil {
		r.logger.Info("form file exists, keeping it", "path", formPath)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to inspect form file: %w", err)
	}

	if err := form.WriteForm(formPath, form.NewForm(models.DefaultConfigDocument())); err != nil {
		return err
	}
	r.logger.Info("form file created", "path", formPath, "format", form.FormatFor(formPath))
	return r.writePlain("✓ Created %s\n", formPath)
}

// ConfigShow prints the wire document assembled from the form without sending it.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	f, err := form.LoadForm(r.formPath(cmd))
	if err != nil {
		return err
	}
	doc, err := form.Assemble(f)
	if err != nil {
		return err
	}
	return r.writeJSON(doc, cmd.Bool("pretty"))
}

// ConfigSave validates the form and submits it. Nothing is sent when validation fails.
func (r *Runner) ConfigSave(ctx context.Context, cmd *cli.Command) error {
	path := r.formPath(cmd)
	session := r.newSession()
	if err := session.BeginSave(); err != nil {
		return err
	}

	message, err := r.saveForm(ctx, path)
	session.CompleteSave(message, err)

	r.printSince(session, 0)
	r.printNotice(session)
	return err
}

func (r *Runner) saveForm(ctx context.Context, path string) (string, error) {
	f, err := form.LoadForm(path)
	if err != nil {
		return "", err
	}
	doc, err := form.Assemble(f)
	if err != nil {
		return "", err
	}
	r.logger.Debug("submitting configuration", "form", path, "paths", len(doc.SearchPaths))
	return r.saver.Save(ctx, doc)
}

func setServerURL(path, url string) error {
	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	config.Server.URL = url
	if err := config.Validate(); err != nil {
		return err
	}
	return shared.SaveConfig(path, config)
}

func searchPaths(f *form.Form) *form.EntryList { return &f.Paths }
func languages(f *form.Form) *form.EntryList   { return &f.Languages }

// EntriesList prints one list of the form file, blank entries included, with the index
// that 'remove' takes.
func (r *Runner) EntriesList(cmd *cli.Command, pick func(*form.Form) *form.EntryList) error {
	f, err := form.LoadForm(r.formPath(cmd))
	if err != nil {
		return err
	}
	for i, v := range pick(f).Values() {
		if err := r.writePlain("%d\t%s\n", i, v); err != nil {
			return err
		}
	}
	return nil
}

// EntriesAdd appends an entry to one list of the form file.
func (r *Runner) EntriesAdd(cmd *cli.Command, pick func(*form.Form) *form.EntryList) error {
	value := cmd.StringArg("value")
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: value", shared.ErrMissingArgument)
	}

	var index int
	err := r.editForm(cmd, func(f *form.Form) error {
		index = pick(f).Add(value)
		return nil
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %q at %d\n", value, index)
}

// EntriesRemove deletes the entry at an index from one list of the form file.
func (r *Runner) EntriesRemove(cmd *cli.Command, pick func(*form.Form) *form.EntryList) error {
	raw := cmd.StringArg("index")
	if raw == "" {
		return fmt.Errorf("%w: index", shared.ErrMissingArgument)
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: index %q is not a number", shared.ErrInvalidArgument, raw)
	}

	var removed string
	err = r.editForm(cmd, func(f *form.Form) error {
		list := pick(f)
		values := list.Values()
		if err := list.Remove(index); err != nil {
			return err
		}
		removed = values[index]
		return nil
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Removed %q\n", removed)
}

// editForm loads the form file, applies edit and writes it back. Nothing is written when edit fails.
func (r *Runner) editForm(cmd *cli.Command, edit func(*form.Form) error) error {
	path := r.formPath(cmd)
	f, err := form.LoadForm(path)
	if err != nil {
		return err
	}
	if err := edit(f); err != nil {
		return err
	}
	if err := form.WriteForm(path, f); err != nil {
		return err
	}
	r.logger.Info("form updated", "path", path)
	return nil
}
