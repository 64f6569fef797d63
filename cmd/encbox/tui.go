package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/docker/go-units"
	"github.com/rivo/tview"

	"github.com/encbox/encbox/cmd/internal"
	"github.com/encbox/encbox/pkg/envelope"
	"github.com/encbox/encbox/pkg/treelock"
)

const (
	modeEncryptFile = iota
	modeDecryptFile
	modeEncryptDir
	modeDecryptDir
)

var modeNames = []string{"Encrypt file", "Decrypt file", "Encrypt directory", "Decrypt directory"}

// runTUI drives the same four core operations as the CLI through a terminal
// form. It contains no cryptographic logic of its own.
func runTUI(profilePath string, workers int) {
	gen, err := loadGenerator(profilePath)
	if err != nil {
		internal.Fatal("%v", err)
	}

	app := tview.NewApplication()

	status := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	status.SetBorder(true).SetTitle("Status").SetTitleAlign(tview.AlignLeft)

	setStatus := func(format string, args ...any) {
		app.QueueUpdateDraw(func() {
			status.SetText(fmt.Sprintf(format, args...))
		})
	}

	form := tview.NewForm().
		AddDropDown("Mode:", modeNames, 0, nil).
		AddInputField("Input path:", "", 60, nil, nil).
		AddInputField("Output path (blank for default):", "", 60, nil, nil).
		AddPasswordField("Passphrase:", "", 40, '*', nil)
	form.AddButton("Run", func() {
		mode, _ := form.GetFormItemByLabel("Mode:").(*tview.DropDown).GetCurrentOption()
		input := form.GetFormItemByLabel("Input path:").(*tview.InputField).GetText()
		output := form.GetFormItemByLabel("Output path (blank for default):").(*tview.InputField).GetText()
		pass := []byte(form.GetFormItemByLabel("Passphrase:").(*tview.InputField).GetText())
		go runTUIOperation(gen, workers, mode, input, output, pass, setStatus)
	})
	form.AddButton("Quit", func() {
		app.Stop()
	})
	form.SetBorder(true).SetTitle("encbox").SetTitleAlign(tview.AlignLeft)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 3, true).
		AddItem(status, 0, 1, false)

	if err := app.SetRoot(flex, true).EnableMouse(true).Run(); err != nil {
		internal.Fatal("TUI failed: %v", err)
	}
}

func runTUIOperation(gen *envelope.KeyGenerator, workers, mode int, input, output string, pass []byte, setStatus func(string, ...any)) {
	defer internal.WipeBytes(pass)

	if input == "" {
		setStatus("[red]Input path is required")
		return
	}
	if len(pass) == 0 {
		setStatus("[red]Passphrase is required")
		return
	}
	encrypt := mode == modeEncryptFile || mode == modeEncryptDir
	if output == "" {
		output = defaultOutPath(input, encrypt)
	}
	setStatus("%s ...", modeNames[mode])

	switch mode {
	case modeEncryptFile, modeDecryptFile:
		data, err := os.ReadFile(input)
		if err != nil {
			setStatus("[red]Failed to read %s: %v", input, err)
			return
		}
		var result []byte
		if encrypt {
			result, err = envelope.EncryptWith(gen, pass, data)
		} else {
			result, err = envelope.DecryptWith(gen, pass, data)
		}
		if err != nil {
			switch {
			case errors.Is(err, envelope.ErrFormat):
				setStatus("[red]%s is not a valid encbox container", input)
			case errors.Is(err, envelope.ErrAuthentication):
				setStatus("[red]Wrong passphrase or corrupted file: %s", input)
			default:
				setStatus("[red]Operation failed: %v", err)
			}
			return
		}
		if err := os.WriteFile(output, result, 0600); err != nil {
			setStatus("[red]Failed to write %s: %v", output, err)
			return
		}
		setStatus("[green]Done:[-] %s -> %s (%s)", input, output, units.HumanSize(float64(len(result))))

	case modeEncryptDir, modeDecryptDir:
		opts := []treelock.TreeOpt{treelock.WithKeyGenerator(gen)}
		if workers > 1 {
			opts = append(opts, treelock.WithWorkers(workers))
		}
		var (
			report *treelock.Report
			err    error
		)
		if encrypt {
			report, err = treelock.EncryptTree(pass, input, output, opts...)
		} else {
			report, err = treelock.DecryptTree(pass, input, output, opts...)
		}
		if err != nil {
			setStatus("[red]Directory operation failed: %v", err)
			return
		}
		if report.Ok() {
			setStatus("[green]Done:[-] %s -> %s: %s", input, output, report)
			return
		}
		first := report.Failed[0]
		setStatus("[yellow]Partial:[-] %s; first failure (%s) %s: %v", report, first.Kind(), first.Source, first.Err)
	}
}
