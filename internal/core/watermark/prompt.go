package watermark

// MimeType is the declared content type of every image sent to the model.
const MimeType = "image/jpeg"

// Prompt instructs the model to read the watermark overlay and answer in the
// labeled format understood by Parse.
const Prompt = `You are analyzing a photo a citizen took to report a problem to city hall.
A watermark overlay near the bottom of the photo shows GPS location data and the capture time.

Read every visible text overlay, character by character, and extract:

1. GPS COORDINATES, written for example as:
   - "Lat 44.513561° Long 26.021965°"
   - "44.513561, 26.021965"
   - "N 44°30'48.8" E 26°01'19.1""
   Latitude lies between -90 and 90, longitude between -180 and 180.

2. TIMESTAMP, written for example as:
   - "19/11/24 09:50 AM"
   - "2024-11-19 09:50:00"
   - "19.11.2024 09:50"

3. LOCATION: any street, district or city name visible in the overlay.

Answer ONLY with these four lines, in this exact format:
LATITUDE: <decimal number>
LONGITUDE: <decimal number>
TIMESTAMP: <date converted to YYYY-MM-DD HH:MM:SS, for example 2024-11-19 09:50:00>
LOCATION: <address or place name>

Write NOT FOUND for any value you cannot read.`
