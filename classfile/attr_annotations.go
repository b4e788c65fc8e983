package classfile

import "fmt"

// annotations copies a Runtime*Annotations body:
// u2 num_annotations, annotation[num_annotations].
func (c *copier) annotations() {
	c.table16(c.annotation)
}

// parameterAnnotations copies a Runtime*ParameterAnnotations body:
// u1 num_parameters, then one annotation table per parameter.
func (c *copier) parameterAnnotations() {
	c.table8(c.annotations)
}

// annotation copies type_index (a field descriptor) and the element-value
// pairs.
func (c *copier) annotation() {
	c.descriptor()
	c.table16(func() {
		c.index()
		c.elementValue()
	})
}

func (c *copier) elementValue() {
	tag := c.u8()
	if c.err != nil {
		return
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		c.index()
	case 'e':
		c.descriptor()
		c.index()
	case 'c':
		// class_info_index is a return descriptor, "V" included.
		c.descriptor()
	case '@':
		c.annotation()
	case '[':
		c.table16(c.elementValue)
	default:
		c.fail(fmt.Errorf("unknown element_value tag %q", tag))
	}
}

// typeAnnotations copies a Runtime*TypeAnnotations body. Each entry carries
// a target_info whose layout depends on target_type, a type_path, and then
// the same fields as an annotation.
func (c *copier) typeAnnotations() {
	c.table16(func() {
		target := c.u8()
		if c.err != nil {
			return
		}
		switch {
		case target == 0x00 || target == 0x01: // type_parameter_target
			c.u8()
		case target == 0x10: // supertype_target
			c.u16()
		case target == 0x11 || target == 0x12: // type_parameter_bound_target
			c.u8()
			c.u8()
		case target >= 0x13 && target <= 0x15: // empty_target
		case target == 0x16: // formal_parameter_target
			c.u8()
		case target == 0x17: // throws_target
			c.u16()
		case target == 0x40 || target == 0x41: // localvar_target
			c.table16(func() {
				c.u16()
				c.u16()
				c.u16()
			})
		case target == 0x42: // catch_target
			c.u16()
		case target >= 0x43 && target <= 0x46: // offset_target
			c.u16()
		case target >= 0x47 && target <= 0x4b: // type_argument_target
			c.u16()
			c.u8()
		default:
			c.fail(fmt.Errorf("unknown type annotation target 0x%02x", target))
			return
		}
		pathLen := c.u8()
		c.bytes(int(pathLen) * 2)
		c.annotation()
	})
}
