package main

import (
	"context"
	"fmt"

	"github.com/trezcool/bunkguard/core/attendance"
)

// recount rebuilds the counters of subjectID, or of every subject when empty, from the stored logs.
func (cli *commandLine) recount(subjectID string) error {
	var ids []string
	if subjectID != "" {
		ids = append(ids, subjectID)
	}
	subjects, err := cli.subjSvc.Recount(context.Background(), ids...)
	if err != nil {
		return err
	}
	for _, subj := range subjects {
		cls := attendance.Classify(subj.Attended, subj.Total)
		fmt.Fprintf(cli.out, "%s\t%s\t%d/%d\t%.2f%%\t%s\n", subj.ID, subj.Name, subj.Attended, subj.Total, cls.Percentage, cls.Tier)
	}
	fmt.Fprintf(cli.out, "%d subject(s) recounted\n", len(subjects))
	return nil
}
