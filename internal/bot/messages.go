package bot

import "fmt"

const (
	msgHelp = "📖 Usage Help:\n\n" +
		"1. Send images directly: Add images to current session\n" +
		"2. Send multiple images: They will be arranged in sending order\n" +
		"3. Generate PDF: Click button to merge all images into PDF\n" +
		"4. Clear images: Use /clear command\n\n" +
		"Important notes:\n" +
		"• Images will be arranged in PDF in sending order\n" +
		"• Supports transparent background images (auto-converted to white background)\n" +
		"• Sessions will be automatically cleaned after 30 minutes of inactivity"

	msgCleared          = "✅ All images cleared. You can start sending images again."
	msgClearedButton    = "✅ All images cleared."
	msgProcessingError  = "❌ Error processing image, please try again."
	msgUnknownFileType  = "❌ Unable to recognize file type."
	msgNoImages         = "❌ No images to convert. Please send images first."
	msgGenerating       = "🔄 Generating PDF, please wait..."
	msgGenerateFailed   = "❌ Failed to generate PDF, please try again."
	msgSendFailed       = "❌ Error sending PDF, please try again."
	msgPDFSent          = "✅ PDF sent! Session cleared, you can send new images."
	labelGeneratePDF    = "📄 Generate PDF"
	labelClearImages    = "🗑️ Clear Images"
)

func msgWelcome(formats string) string {
	return "Welcome to the Image to PDF Bot! 📄\n\n" +
		"How to use:\n" +
		"1. Send one or multiple images to me\n" +
		"2. Click the 'Generate PDF' button\n" +
		"3. Receive the merged PDF file\n\n" +
		fmt.Sprintf("Supported formats: %s\n\n", formats) +
		"Commands:\n" +
		"/start - Show welcome message\n" +
		"/help - Show help information\n" +
		"/clear - Clear current images"
}

func msgImageReceived(count int) string {
	return fmt.Sprintf("✅ Image received! Currently have %d images.", count)
}

func msgUnsupportedFormat(formats string) string {
	return fmt.Sprintf("❌ Unsupported file format. Supported formats: %s", formats)
}

func msgSessionFull(limit int) string {
	return fmt.Sprintf("❌ Session is full (%d images max). Generate the PDF or /clear first.", limit)
}

func msgPDFCaption(pages int) string {
	return fmt.Sprintf("✅ PDF generated successfully! Contains %d images.", pages)
}
