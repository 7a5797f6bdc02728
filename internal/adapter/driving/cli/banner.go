package cli

import (
	"fmt"

	"github.com/diillson/aws-cost-report-go/pkg/version"
	"github.com/fatih/color"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner(versionStr string) {
	banner := `
          /$$$$$$  /$$      /$$  /$$$$$$
         /$$__  $$| $$  /$ | $$ /$$__  $$
        | $$  \ $$| $$ /$$$| $$| $$  \__/
        | $$$$$$$$| $$/$$ $$ $$|  $$$$$$
        | $$__  $$| $$$$_  $$$$ \____  $$
        | $$  | $$| $$$/ \  $$$ /$$  \ $$
        | $$  | $$| $$/   \  $$|  $$$$$$/
        |__/  |__/|__/     \__/ \______/
        `
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(red(banner))

	// Obtem a string formatada da versão através do pacote version
	formattedVersion := version.FormatVersion()
	fmt.Println(blue(fmt.Sprintf("AWS Cost Report CLI (v%s)", formattedVersion)))
}
