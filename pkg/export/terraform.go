package export

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/hwaldner/cloudcanvas/pkg/canonical"
)

// terraformResources maps component kinds to Terraform resource types.
var terraformResources = map[string]string{
	"vpc":          "aws_vpc",
	"subnet":       "aws_subnet",
	"compute":      "aws_instance",
	"database":     "aws_db_instance",
	"storage":      "aws_s3_bucket",
	"queue":        "aws_sqs_queue",
	"function":     "aws_lambda_function",
	"loadbalancer": "aws_lb",
	"cache":        "aws_elasticache_cluster",
	"gateway":      "aws_api_gateway_rest_api",
}

// terraformAttrs maps component props to Terraform attribute names where a
// direct equivalent exists. Keys follow the catalog's prop naming (see the
// builtin component set). Everything else is emitted as a comment.
var terraformAttrs = map[string]string{
	"cidr":          "cidr_block",
	"instance_type": "instance_type",
	"engine":        "engine",
	"runtime":       "runtime",
}

// generateTerraform renders a flat resource skeleton. Containment is ignored
// and nothing is validated against provider schemas: the output is a
// starting template, not deployable code.
func generateTerraform(_ context.Context, d *canonical.Diagram) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# Starting template generated from a diagram. Review before use.\n")

	for i := range d.Items {
		item := &d.Items[i]
		resource, ok := terraformResources[item.Key]
		if !ok {
			fmt.Fprintf(&buf, "\n# no resource mapping for %q (%s)\n", item.Key, item.Label)
			continue
		}

		fmt.Fprintf(&buf, "\nresource %q %q {\n", resource, sanitizeID(item.ID))
		fmt.Fprintf(&buf, "  # %s\n", item.Label)
		for _, k := range slices.Sorted(maps.Keys(item.Props)) {
			if k == "boundary" {
				continue
			}
			if attr, ok := terraformAttrs[k]; ok {
				fmt.Fprintf(&buf, "  %s = %q\n", attr, item.Props[k])
				continue
			}
			fmt.Fprintf(&buf, "  # %s = %q\n", k, item.Props[k])
		}
		buf.WriteString("}\n")
	}

	return buf.Bytes(), nil
}
