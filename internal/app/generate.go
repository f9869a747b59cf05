package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/sarth-shah20/mwdocker/internal/config"
	"github.com/sarth-shah20/mwdocker/internal/generate"
)

// executables are the generated scripts that are run with bash inside the
// container and must keep their execute bit when bind mounted.
var executables = []string{
	"disable_sudo.sh",
	"install_djvu.sh",
	"plantuml.sh",
	"addSysopUser.sh",
	"installExtensions.sh",
	"setup-mediawiki.sh",
}

// sysopFiles carry the sysop password.
var sysopFiles = []string{"addSysopUser.sh", "setup-mediawiki.sh"}

var plainFiles = []string{
	"phpinfo.php",
	"disable_sudo.sh",
	"install_djvu.sh",
	"plantuml.sh",
	"upload.ini",
}

// GenerateAll writes every file needed to build and run the instance to its
// artifact directory and saves the configuration next to them. Existing
// files are kept unless overwrite is set.
func (a *Application) GenerateAll(overwrite bool) error {
	cfg := a.Config
	dir := cfg.ArtifactDir()
	short := cfg.ShortVersion("")

	if cfg.RandomPassword {
		if err := a.ensureSysopPassword(dir, overwrite); err != nil {
			return err
		}
	}
	secretKey, err := config.RandomPassword(64)
	if err != nil {
		return err
	}
	data := generate.NewData(cfg, time.Now(), secretKey)

	composeTemplate := "mwCompose.yml"
	if cfg.HasExternalDB() {
		composeTemplate = "mwComposeExternalDB.yml"
	}
	files := []struct{ template, target string }{
		{"mwDockerfile", "Dockerfile"},
		{"setup-mediawiki.sh", "setup-mediawiki.sh"},
		{composeTemplate, "docker-compose.yml"},
		{a.generator.FirstTemplate(fmt.Sprintf("mwLocalSettings%s.php", short), "mwLocalSettings.php"), "LocalSettings.php"},
		{fmt.Sprintf("mwWiki%s.sql", short), "wiki.sql"},
		{"addSysopUser.sh", "addSysopUser.sh"},
		{"installExtensions.sh", "installExtensions.sh"},
	}
	for _, name := range plainFiles {
		files = append(files, struct{ template, target string }{name, name})
	}
	for _, f := range files {
		if _, err := a.generator.Generate(f.template, filepath.Join(dir, f.target), overwrite, data); err != nil {
			return err
		}
	}

	composer := generate.ComposerRequire(cfg.SMWVersion, data.Composer())
	if _, err := a.generator.Write(filepath.Join(dir, "composer.local.json"), []byte(composer), overwrite); err != nil {
		return err
	}

	if err := generate.MakeExecutable(dir, executables...); err != nil {
		return err
	}

	// the saved configuration must not trigger another rebuild on load
	forceRebuild := cfg.ForceRebuild
	cfg.ForceRebuild = false
	path, err := cfg.Save("")
	cfg.ForceRebuild = forceRebuild
	if err != nil {
		return err
	}
	a.log.Info("generated docker application", zap.String("dir", dir), zap.String("config", path))
	return nil
}

// ensureSysopPassword creates a random sysop password if the files carrying
// it are about to be written. When they are kept, the password saved with
// them is kept as well.
func (a *Application) ensureSysopPassword(dir string, overwrite bool) error {
	cfg := a.Config
	if !overwrite && anyExists(dir, sysopFiles) {
		saved, _, err := config.LoadInstance(cfg.ConfigPath(), nil)
		if err != nil {
			a.log.Warn("existing scripts kept but their sysop password is unknown", zap.Error(err))
			return nil
		}
		cfg.Password = saved.Password
		return nil
	}
	pw, err := config.RandomPassword(cfg.PasswordLength)
	if err != nil {
		return err
	}
	cfg.Password = pw
	return nil
}

func anyExists(dir string, names []string) bool {
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
