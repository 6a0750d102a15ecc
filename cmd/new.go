package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/assesskit/internal/model"
	"github.com/dotcommander/assesskit/internal/scoring"
)

type newOptions struct {
	template    string
	name        string
	out         string
	subjectID   string
	subjectName string
	subjectType string
	orgID       string
	orgName     string
}

var newOpts newOptions

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an assessment from a template",
	Long: `New instantiates a template into a fresh assessment with a new id and every
test left unanswered. Without --out the document is printed as JSON.`,
	Example: `  assesskit new --template templates/pid-owner.yaml --name "Handle.net" \
    --subject-id handle --subject-name Handle --subject-type "PID service" \
    --out assessments/handle.json`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runNew(newOpts, cmd.OutOrStdout()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	f := newCmd.Flags()
	f.StringVarP(&newOpts.template, "template", "t", "", "Template file to instantiate")
	f.StringVarP(&newOpts.name, "name", "n", "", "Assessment name")
	f.StringVar(&newOpts.out, "out", "", "Write the assessment to this file (.json, .yaml or .yml)")
	f.StringVar(&newOpts.subjectID, "subject-id", "", "Subject identifier")
	f.StringVar(&newOpts.subjectName, "subject-name", "", "Subject name")
	f.StringVar(&newOpts.subjectType, "subject-type", "", "Subject type")
	f.StringVar(&newOpts.orgID, "org-id", "", "Owning organisation identifier")
	f.StringVar(&newOpts.orgName, "org-name", "", "Owning organisation name")
	_ = newCmd.MarkFlagRequired("template")
	rootCmd.AddCommand(newCmd)
}

func runNew(opts newOptions, w io.Writer) error {
	a, err := instantiate(opts)
	if err != nil {
		return err
	}

	if opts.out == "" {
		data, err := model.EncodeAssessment(a, model.FormatJSON)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if _, err := os.Stat(opts.out); err == nil {
		return fmt.Errorf("%s already exists", opts.out)
	}
	if err := model.SaveAssessment(a, opts.out); err != nil {
		return err
	}
	fmt.Fprintf(w, "Created %s (%s) from template %s\n", opts.out, a.ID, a.TemplateID)
	return nil
}

func instantiate(opts newOptions) (*model.Assessment, error) {
	tpl, err := model.LoadTemplate(opts.template)
	if err != nil {
		return nil, err
	}

	inst := model.InstantiateOptions{Name: opts.name}
	if opts.subjectID != "" || opts.subjectName != "" || opts.subjectType != "" {
		inst.Subject = &model.Subject{ID: opts.subjectID, Name: opts.subjectName, Type: opts.subjectType}
	}
	if opts.orgID != "" || opts.orgName != "" {
		inst.Organisation = &model.Organisation{ID: opts.orgID, Name: opts.orgName}
	}

	a, err := model.Instantiate(tpl, inst)
	if err != nil {
		return nil, err
	}
	scoring.ApplyAssessment(a)
	return a, nil
}
